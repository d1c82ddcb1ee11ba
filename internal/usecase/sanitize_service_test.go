package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
	"github.com/riskibarqy/nleaderboard/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSanitizeService_Sanitize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newLeaderboardFixture(t, leaderboard.Policy{})

	f.source.On("FetchScores", mock.Anything, levelRef).Return([]leaderboard.Entry{
		{UserID: 1, UserName: "alpha", Score: 90000, ReplayID: 10},
		{UserID: 2, UserName: "beta", Score: 85000, ReplayID: 11},
		{UserID: 3, UserName: "gamma", Score: 80000, ReplayID: 12},
	}, nil).Once()
	_, err := f.service.Refresh(ctx, levelRef)
	require.NoError(t, err)

	rows, err := f.archives.ListByRef(ctx, levelRef)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	alpha := rows[0]

	// Same run archived twice under a different replay id.
	scores := memory.NewScoreRepository(f.db)
	err = scores.WithinBoard(ctx, levelRef, func(ctx context.Context, tx score.Tx) error {
		dup := alpha
		dup.ID = 0
		dup.ReplayID = 99
		_, err := tx.InsertArchive(ctx, dup)
		return err
	})
	require.NoError(t, err)

	policy := leaderboard.Policy{
		BlacklistedIDs: map[int64]struct{}{3: {}},
		DeniedReplays: map[highscoreable.Kind]map[int64]struct{}{
			highscoreable.KindLevel: {11: {}},
		},
	}
	report, err := NewSanitizeService(f.archives, policy, nil).Sanitize(ctx)
	require.NoError(t, err)
	assert.Equal(t, SanitizeReport{
		Scores:         1,
		Archives:       1,
		DeniedArchives: 1,
		Duplicates:     1,
		Players:        1,
	}, report)

	left, err := f.archives.ListByRef(ctx, levelRef)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, alpha.ID, left[0].ID)

	current, err := f.service.Current(ctx, levelRef)
	require.NoError(t, err)
	require.Len(t, current, 2)
	for _, row := range current {
		assert.NotEqual(t, int64(3), row.MetanetID)
	}

	_, exists, err := memory.NewPlayerRepository(f.db).GetByMetanetID(ctx, 3)
	require.NoError(t, err)
	assert.False(t, exists)

	again, err := NewSanitizeService(f.archives, policy, nil).Sanitize(ctx)
	require.NoError(t, err)
	assert.Equal(t, SanitizeReport{}, again)
}

func TestSanitizeService_EmptyPolicy(t *testing.T) {
	t.Parallel()

	f := newLeaderboardFixture(t, leaderboard.Policy{})
	report, err := NewSanitizeService(f.archives, leaderboard.Policy{}, nil).Sanitize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SanitizeReport{}, report)

	var _ archive.Maintenance = f.archives
}
