package mappack

import (
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

// Board is one of the two independent leaderboards of a mappack target.
type Board string

const (
	// BoardHS ranks by completion time in frames.
	BoardHS Board = "hs"
	// BoardSR ranks by the number of frames played.
	BoardSR Board = "sr"
)

var Boards = []Board{BoardHS, BoardSR}

// Better reports whether value x beats value y. Both boards rank lower
// values first.
func (b Board) Better(x, y int64) bool {
	return x < y
}

// Score is one submission. ID doubles as the replay id handed back to
// the game client. A nil rank means the row is not live on that board.
type Score struct {
	ID         int64
	MappackID  int64
	Ref        highscoreable.Ref
	PlayerID   int64
	MetanetID  int64
	PlayerName string
	ScoreHS    int64
	ScoreSR    int64
	RankHS     *int
	TiedRankHS *int
	RankSR     *int
	TiedRankSR *int
	Gold       int
	Tab        highscoreable.Tab
	Date       time.Time
}

func (s Score) Value(b Board) int64 {
	if b == BoardSR {
		return s.ScoreSR
	}
	return s.ScoreHS
}

func (s Score) Rank(b Board) *int {
	if b == BoardSR {
		return s.RankSR
	}
	return s.RankHS
}

func (s Score) TiedRank(b Board) *int {
	if b == BoardSR {
		return s.TiedRankSR
	}
	return s.TiedRankHS
}

func (s Score) Live(b Board) bool {
	return s.Rank(b) != nil
}

func (s *Score) SetRank(b Board, rank, tied *int) {
	if b == BoardSR {
		s.RankSR, s.TiedRankSR = rank, tied
		return
	}
	s.RankHS, s.TiedRankHS = rank, tied
}

// RankUpdate is the outcome of a recomputation for one live row.
type RankUpdate struct {
	ID       int64
	Rank     int
	TiedRank int
}
