package score

import (
	"math"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

// Slots is the number of leaderboard positions kept per highscoreable.
const Slots = 20

// Score is the current-state leaderboard row at one rank.
type Score struct {
	Ref        highscoreable.Ref
	Rank       int
	TiedRank   int
	Score      int64 // thousandths of a second, as reported upstream
	PlayerID   int64
	MetanetID  int64
	PlayerName string
	ReplayID   int64
	Tab        highscoreable.Tab
	Cool       bool
	Star       bool
}

func (s Score) Seconds() float64 {
	return float64(s.Score) / 1000
}

// Frames converts the score to 1/60 s units, the resolution of the game.
func (s Score) Frames() int64 {
	return ToFrames(s.Score)
}

// ToFrames converts thousandths of a second to whole frames.
func ToFrames(ms int64) int64 {
	return int64(math.Round(float64(ms) * 60 / 1000))
}
