package mappack

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func liveHS(id, playerID, value int64) Score {
	return Score{ID: id, PlayerID: playerID, ScoreHS: value, RankHS: intPtr(PendingRank), TiedRankHS: intPtr(PendingRank)}
}

func TestImpliedGold(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, ImpliedGold(5400, 120), 1e-9)
	assert.InDelta(t, 0.0, ImpliedGold(5400, 0), 1e-9)
}

func TestCheckGold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		hs, frames int64
		known      int
		gold       int
		suspicious bool
	}{
		{name: "consistent", hs: 5400, frames: 120, known: 3, gold: 1},
		{name: "unknown map", hs: 5400, frames: 240, gold: 2},
		{name: "negative", hs: 100, frames: 100, gold: -43, suspicious: true},
		{name: "fractional", hs: 5400, frames: 60, gold: 1, suspicious: true},
		{name: "above known", hs: 5400, frames: 600, known: 3, gold: 5, suspicious: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := CheckGold(tc.hs, tc.frames, tc.known)
			assert.Equal(t, tc.gold, got.Gold)
			assert.Equal(t, tc.suspicious, got.Suspicious, got.Reason)
		})
	}
}

func TestImproves(t *testing.T) {
	t.Parallel()

	rows := []Score{
		liveHS(1, 10, 600),
		liveHS(2, 20, 570),
		{ID: 3, PlayerID: 30, ScoreHS: 100},
	}

	assert.True(t, Improves(nil, BoardHS, 10, 9999), "empty board")
	assert.True(t, Improves(rows, BoardHS, 10, 590), "beats own best")
	assert.False(t, Improves(rows, BoardHS, 10, 600), "equal is not better")
	assert.False(t, Improves(rows, BoardHS, 30, 580), "new player must beat the record")
	assert.True(t, Improves(rows, BoardHS, 30, 560))
	assert.True(t, Improves(rows, BoardSR, 10, 5000), "sr board is empty")
}

func TestRecompute_AscendingWithTies(t *testing.T) {
	t.Parallel()

	rows := []Score{
		liveHS(4, 1, 600),
		liveHS(2, 2, 570),
		liveHS(3, 3, 600),
		{ID: 1, PlayerID: 4, ScoreHS: 1},
	}

	got := Recompute(rows, BoardHS)
	want := []RankUpdate{
		{ID: 2, Rank: 0, TiedRank: 0},
		{ID: 3, Rank: 1, TiedRank: 1},
		{ID: 4, Rank: 2, TiedRank: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("recompute mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayerBest(t *testing.T) {
	t.Parallel()

	rows := []Score{liveHS(1, 10, 600), liveHS(5, 10, 590), liveHS(2, 20, 500)}
	got, ok := PlayerBest(rows, BoardHS, 10)
	assert.True(t, ok)
	assert.Equal(t, int64(5), got.ID)

	_, ok = PlayerBest(rows, BoardSR, 10)
	assert.False(t, ok)

	rec, ok := Record(rows, BoardHS)
	assert.True(t, ok)
	assert.Equal(t, int64(2), rec.ID)
}
