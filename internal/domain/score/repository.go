package score

import (
	"context"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/player"
)

type Repository interface {
	ListByRef(ctx context.Context, ref highscoreable.Ref) ([]Score, error)
}

// Store serializes writers of one highscoreable. fn runs inside a single
// transaction; returning an error rolls every change back.
type Store interface {
	WithinBoard(ctx context.Context, ref highscoreable.Ref, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes a leaderboard refresh performs atomically.
type Tx interface {
	FindOrCreatePlayer(ctx context.Context, metanetID int64, name string) (player.Player, error)
	ListArchives(ctx context.Context, ref highscoreable.Ref) ([]archive.Archive, error)
	ArchiveExists(ctx context.Context, kind highscoreable.Kind, replayID int64) (bool, error)
	// ExpireArchives marks every live archive of the player on ref expired.
	ExpireArchives(ctx context.Context, ref highscoreable.Ref, playerID int64) error
	InsertArchive(ctx context.Context, item archive.Archive) (int64, error)
	InsertDemo(ctx context.Context, demo archive.Demo) error
	// ReplaceScores stores rows at ranks 0..n-1 and drops ranks >= n.
	ReplaceScores(ctx context.Context, ref highscoreable.Ref, rows []Score) error
	Now() time.Time
}
