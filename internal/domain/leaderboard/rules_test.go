package leaderboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

func TestTiedRanks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []int64
		want   []int
	}{
		{name: "leading tie", values: []int64{90, 90, 88}, want: []int{0, 0, 2}},
		{name: "no ties", values: []int64{5, 4, 3}, want: []int{0, 1, 2}},
		{name: "trailing tie", values: []int64{9, 7, 7, 7, 1}, want: []int{0, 1, 1, 1, 4}},
		{name: "empty", values: nil, want: []int{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tc.want, TiedRanks(tc.values)); diff != "" {
				t.Fatalf("unexpected tied ranks (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRank_OrdersByScoreThenReplayID(t *testing.T) {
	t.Parallel()

	ref := highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 700}
	entries := []Entry{
		{UserID: 1, UserName: "a", Score: 88000, ReplayID: 10},
		{UserID: 2, UserName: "b", Score: 90000, ReplayID: 30},
		{UserID: 3, UserName: "c", Score: 90000, ReplayID: 20},
		{UserID: 4, UserName: "d", Score: 70000, ReplayID: 5},
	}

	got, report := Rank(ref, entries, Policy{}, nil, 20)
	require.Len(t, got, 4)
	assert.Zero(t, report.Dropped())

	wantUsers := []int64{3, 2, 1, 4}
	for i, r := range got {
		assert.Equal(t, i, r.Rank)
		assert.Equal(t, wantUsers[i], r.UserID, "rank %d", i)
	}
	assert.Equal(t, []int{0, 0, 2, 3}, []int{got[0].TiedRank, got[1].TiedRank, got[2].TiedRank, got[3].TiedRank})
}

func TestRank_TruncatesToLimit(t *testing.T) {
	t.Parallel()

	ref := highscoreable.Ref{Kind: highscoreable.KindUserlevel, ID: 1}
	entries := make([]Entry, 0, 25)
	for i := int64(0); i < 25; i++ {
		entries = append(entries, Entry{UserID: i, Score: 1000 * i, ReplayID: i})
	}

	got, _ := Rank(ref, entries, DefaultPolicy(), nil, 20)
	require.Len(t, got, 20)
	assert.Equal(t, int64(24), got[0].UserID)
	assert.Equal(t, int64(5), got[19].UserID)
}

func TestClean_AppliesPolicy(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	ref := highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 910}
	entries := []Entry{
		{UserID: 63944, UserName: "someone", Score: 100000, ReplayID: 1},      // blacklisted id
		{UserID: 5, UserName: "Mishu", Score: 100000, ReplayID: 2},            // blacklisted name
		{UserID: 6, UserName: "ok", Score: 100000, ReplayID: 3572785},         // denied replay
		{UserID: 7, UserName: "ok", Score: 874000, ReplayID: 3},               // at the S ceiling
		{UserID: 8, UserName: "ok", Score: 150000, ReplayID: 286360},          // batch patched
		{UserID: 9, UserName: "ok", Score: 150000, ReplayID: 286361},          // after the patch window
		{UserID: 10, UserName: "ok", Score: 150000, ReplayID: 3758900},        // individually patched
	}

	got, report := Clean(ref, entries, policy)
	assert.Equal(t, CleanReport{Blacklisted: 2, Denied: 1, Implausible: 1, Patched: 2}, report)
	require.Len(t, got, 3)
	assert.Equal(t, int64(108000), got[0].Score)
	assert.Equal(t, int64(150000), got[1].Score)
	assert.Equal(t, int64(144000), got[2].Score)
}

func TestPolicy_Ceiling(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()

	limit, ok := policy.Ceiling(highscoreable.Ref{Kind: highscoreable.KindLevel, ID: 1850})
	require.True(t, ok)
	assert.Equal(t, 2462.0, limit)

	limit, ok = policy.Ceiling(highscoreable.Ref{Kind: highscoreable.KindEpisode, ID: 400})
	require.True(t, ok, "ids outside every tab use the widest limit of the kind")
	assert.Equal(t, 950.0, limit)

	_, ok = policy.Ceiling(highscoreable.Ref{Kind: highscoreable.KindUserlevel, ID: 1})
	assert.False(t, ok)
}

func TestRank_StarOnlyForHistoricalHolder(t *testing.T) {
	t.Parallel()

	ref := highscoreable.Ref{Kind: highscoreable.KindEpisode, ID: 130}
	entries := []Entry{
		{UserID: 1, Score: 300000, ReplayID: 1},
		{UserID: 2, Score: 299000, ReplayID: 2},
	}

	got, _ := Rank(ref, entries, Policy{}, map[int64]struct{}{1: {}, 2: {}}, 20)
	assert.True(t, got[0].Star)
	assert.False(t, got[1].Star, "only rank 0 can be starred")

	got, _ = Rank(ref, entries, Policy{}, map[int64]struct{}{2: {}}, 20)
	assert.False(t, got[0].Star, "a fresh 0th is not starred")
}

func TestCoolCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scores []float64
		want   int
	}{
		{name: "diverges on tens", scores: []float64{90.0, 89.5, 88.0, 80.0}, want: 1},
		{name: "diverges on decimals", scores: []float64{123.456, 123.45, 123.4}, want: 2},
		{name: "identical extremes", scores: []float64{50.0, 50.0}, want: 0},
		{name: "single score", scores: []float64{42.0}, want: 0},
		{name: "empty", scores: nil, want: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CoolCount(tc.scores))
		})
	}
}

func TestTruncateDigits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 123.45, truncateDigits(123.456, 2))
	assert.Equal(t, 0.29, truncateDigits(0.29, 2))
	assert.Equal(t, 90.0, truncateDigits(97.3, -1))
	assert.Equal(t, 97.0, truncateDigits(97.3, 0))
	assert.Equal(t, "90.0", floatString(90))
	assert.Equal(t, "123.456", floatString(123.456))
}
