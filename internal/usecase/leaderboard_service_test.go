package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/infrastructure/repository/memory"
	usecasemock "github.com/riskibarqy/nleaderboard/internal/mocks/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	levelRef     = highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 600}
	userlevelRef = highscoreable.Ref{Kind: highscoreable.KindUserlevel, ID: 42}
)

type leaderboardFixture struct {
	db       *memory.Database
	archives *memory.ArchiveRepository
	source   *usecasemock.ScoreSource
	service  *LeaderboardService
	now      time.Time
}

func newLeaderboardFixture(t *testing.T, policy leaderboard.Policy) *leaderboardFixture {
	t.Helper()

	f := &leaderboardFixture{
		db: memory.NewDatabase([]highscoreable.Highscoreable{
			highscoreable.Level{Meta: highscoreable.Meta{ID: 600, Name: "S-A-00-00", Tab: highscoreable.TabN}},
			highscoreable.Level{Meta: highscoreable.Meta{ID: 601, Name: "S-A-00-01", Tab: highscoreable.TabN}},
			highscoreable.Userlevel{Meta: highscoreable.Meta{ID: 42, Name: "custom", Tab: highscoreable.TabUserlevel}},
		}),
		source: usecasemock.NewScoreSource(t),
		now:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.db.SetClock(func() time.Time { return f.now })
	f.archives = memory.NewArchiveRepository(f.db)
	scores := memory.NewScoreRepository(f.db)
	f.service = NewLeaderboardService(
		memory.NewHighscoreableRepository(f.db),
		scores,
		scores,
		f.source,
		policy,
		LeaderboardConfig{MaxWorkers: 2},
		nil,
		nil,
	)
	return f
}

func liveArchivesByPlayer(rows []archive.Archive) map[int64]int {
	out := make(map[int64]int)
	for _, a := range rows {
		if !a.Expired {
			out[a.PlayerID]++
		}
	}
	return out
}

func TestLeaderboardService_Refresh_ArchivesNewRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newLeaderboardFixture(t, leaderboard.Policy{})

	f.source.On("FetchScores", mock.Anything, levelRef).Return([]leaderboard.Entry{
		{UserID: 1, UserName: "alpha", Score: 90000, ReplayID: 10},
		{UserID: 2, UserName: "beta", Score: 85000, ReplayID: 11},
	}, nil).Once()

	first, err := f.service.Refresh(ctx, levelRef)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Scores)
	assert.Equal(t, 2, first.Archived)

	current, err := f.service.Current(ctx, levelRef)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, "alpha", current[0].PlayerName)
	assert.False(t, current[0].Star, "nobody held 0th before the first refresh")

	f.now = f.now.Add(time.Hour)
	f.source.On("FetchScores", mock.Anything, levelRef).Return([]leaderboard.Entry{
		{UserID: 2, UserName: "beta", Score: 85000, ReplayID: 11},
		{UserID: 1, UserName: "alpha", Score: 95000, ReplayID: 12},
	}, nil).Once()

	second, err := f.service.Refresh(ctx, levelRef)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Archived)

	current, err = f.service.Current(ctx, levelRef)
	require.NoError(t, err)
	assert.Equal(t, int64(95000), current[0].Score)
	assert.Equal(t, int64(12), current[0].ReplayID)
	assert.True(t, current[0].Star)

	rows, err := f.archives.ListByRef(ctx, levelRef)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for playerID, live := range liveArchivesByPlayer(rows) {
		assert.Equal(t, 1, live, "player %d", playerID)
	}
	assert.Equal(t, int64(5700), rows[2].Score)
	assert.Equal(t, -1, rows[2].Framecount)

	pending, err := f.archives.ListPendingDemos(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestLeaderboardService_Refresh_ShrinksBoard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newLeaderboardFixture(t, leaderboard.Policy{BlacklistedIDs: map[int64]struct{}{3: {}}})

	f.source.On("FetchScores", mock.Anything, levelRef).Return([]leaderboard.Entry{
		{UserID: 1, UserName: "alpha", Score: 90000, ReplayID: 10},
		{UserID: 2, UserName: "beta", Score: 85000, ReplayID: 11},
	}, nil).Once()
	_, err := f.service.Refresh(ctx, levelRef)
	require.NoError(t, err)

	f.source.On("FetchScores", mock.Anything, levelRef).Return([]leaderboard.Entry{
		{UserID: 3, UserName: "cheater", Score: 99000, ReplayID: 20},
		{UserID: 1, UserName: "alpha", Score: 90000, ReplayID: 10},
	}, nil).Once()
	result, err := f.service.Refresh(ctx, levelRef)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Filtered.Blacklisted)
	assert.Equal(t, 0, result.Archived)

	current, err := f.service.Current(ctx, levelRef)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, 0, current[0].Rank)
}

func TestLeaderboardService_Refresh_Userlevel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newLeaderboardFixture(t, leaderboard.Policy{})

	f.source.On("FetchScores", mock.Anything, userlevelRef).Return([]leaderboard.Entry{
		{UserID: 1, UserName: "alpha", Score: 10000, ReplayID: 10},
		{UserID: 2, UserName: "beta", Score: 10000, ReplayID: 11},
	}, nil).Once()

	result, err := f.service.Refresh(ctx, userlevelRef)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Archived)

	current, err := f.service.Current(ctx, userlevelRef)
	require.NoError(t, err)
	require.Len(t, current, 2)
	assert.Equal(t, int64(600), current[0].Score)
	assert.Equal(t, 0, current[1].TiedRank)
	assert.False(t, current[0].Cool)

	h, _, err := memory.NewHighscoreableRepository(f.db).Get(ctx, userlevelRef)
	require.NoError(t, err)
	assert.True(t, h.(highscoreable.Userlevel).Scored)
}

func TestLeaderboardService_Refresh_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newLeaderboardFixture(t, leaderboard.Policy{})

	_, err := f.service.Refresh(ctx, highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 9999})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.service.Refresh(ctx, highscoreable.Ref{Kind: highscoreable.KindMappackLevel, ID: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	f.source.On("FetchScores", mock.Anything, levelRef).Return(nil, errors.New("server said -1337")).Once()
	_, err = f.service.Refresh(ctx, levelRef)
	require.ErrorIs(t, err, ErrDependencyUnavailable)
}

func TestLeaderboardService_RefreshAll_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newLeaderboardFixture(t, leaderboard.Policy{})
	other := highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 601}

	f.source.On("FetchScores", mock.Anything, levelRef).Return([]leaderboard.Entry{
		{UserID: 1, UserName: "alpha", Score: 90000, ReplayID: 10},
	}, nil).Once()
	f.source.On("FetchScores", mock.Anything, other).Return(nil, errors.New("timeout")).Once()

	result, err := f.service.RefreshAll(ctx, []highscoreable.Kind{highscoreable.KindLevel})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TaskCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Results, 1)
	assert.Equal(t, int64(600), result.Results[0].ID)
}
