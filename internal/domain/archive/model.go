package archive

import (
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

// Archive is one immutable historical submission. Score is in frames
// (1/60 s). At most one row per (player, highscoreable) has Expired=false.
type Archive struct {
	ID         int64
	Ref        highscoreable.Ref
	PlayerID   int64
	MetanetID  int64
	ReplayID   int64
	Score      int64
	Date       time.Time
	Tab        highscoreable.Tab
	Lost       bool
	Expired    bool
	Framecount int // -1 until the demo is downloaded
	Gold       int // -1 until the demo is downloaded
}

// Demo is the stored replay payload of the archive with the same id.
// An empty Data means the replay has not been downloaded yet.
type Demo struct {
	ID   int64
	Data []byte
}

func (d Demo) Pending() bool {
	return len(d.Data) == 0
}
