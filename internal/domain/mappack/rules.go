package mappack

import (
	"math"
	"sort"

	"github.com/riskibarqy/nleaderboard/internal/codec/demo"
)

// PendingRank marks a freshly inserted row awaiting recomputation.
const PendingRank = -1

// goldTolerance is how far the implied gold may sit from an integer
// before the run is flagged.
const goldTolerance = 0.1

// Record returns the best live row on the board across all players.
func Record(rows []Score, board Board) (Score, bool) {
	return best(rows, board, func(Score) bool { return true })
}

// PlayerBest returns the player's best live row on the board.
func PlayerBest(rows []Score, board Board, playerID int64) (Score, bool) {
	return best(rows, board, func(s Score) bool { return s.PlayerID == playerID })
}

func best(rows []Score, board Board, keep func(Score) bool) (Score, bool) {
	var (
		out   Score
		found bool
	)
	for _, row := range rows {
		if !row.Live(board) || !keep(row) {
			continue
		}
		if !found || board.Better(row.Value(board), out.Value(board)) ||
			(row.Value(board) == out.Value(board) && row.ID < out.ID) {
			out = row
			found = true
		}
	}
	return out, found
}

// Improves decides whether value is a strict improvement for the player.
// A player with a live row must beat it; a player without one must beat
// the current record, and an empty board always improves.
func Improves(rows []Score, board Board, playerID int64, value int64) bool {
	if current, ok := PlayerBest(rows, board, playerID); ok {
		return board.Better(value, current.Value(board))
	}
	record, ok := Record(rows, board)
	if !ok {
		return true
	}
	return board.Better(value, record.Value(board))
}

// Recompute ranks every live row of the board: best value first, lower
// id on ties, tied rank shared with the first row of equal value.
func Recompute(rows []Score, board Board) []RankUpdate {
	live := make([]Score, 0, len(rows))
	for _, row := range rows {
		if row.Live(board) {
			live = append(live, row)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		vi, vj := live[i].Value(board), live[j].Value(board)
		if vi != vj {
			return board.Better(vi, vj)
		}
		return live[i].ID < live[j].ID
	})

	out := make([]RankUpdate, 0, len(live))
	for i, row := range live {
		tied := i
		if i > 0 && live[i-1].Value(board) == row.Value(board) {
			tied = out[i-1].TiedRank
		}
		out = append(out, RankUpdate{ID: row.ID, Rank: i, TiedRank: tied})
	}
	return out
}

// ImpliedGold derives the gold count from a highscore (frames) and the
// number of frames played.
func ImpliedGold(scoreHS, framecount int64) float64 {
	return demo.GoldEstimate(scoreHS, framecount)
}

// GoldCheck is the soft validation result of a submitted run.
type GoldCheck struct {
	Implied    float64
	Gold       int
	Suspicious bool
	Reason     string
}

// CheckGold validates the implied gold against the known count of the
// target. known <= 0 means unknown and only the shape is checked.
func CheckGold(scoreHS, framecount int64, known int) GoldCheck {
	implied := ImpliedGold(scoreHS, framecount)
	out := GoldCheck{Implied: implied, Gold: int(math.Round(implied))}

	switch {
	case implied < -goldTolerance:
		out.Suspicious, out.Reason = true, "negative gold"
	case math.Abs(implied-math.Round(implied)) > goldTolerance:
		out.Suspicious, out.Reason = true, "gold is not an integer"
	case known > 0 && out.Gold > known:
		out.Suspicious, out.Reason = true, "more gold than the map holds"
	}
	return out
}
