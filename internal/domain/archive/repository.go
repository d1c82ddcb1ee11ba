package archive

import (
	"context"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

type Repository interface {
	ListByRef(ctx context.Context, ref highscoreable.Ref) ([]Archive, error)
	GetByID(ctx context.Context, id int64) (Archive, bool, error)
	// ListPendingDemos returns archives whose demo is still empty and that
	// were not marked lost, oldest first.
	ListPendingDemos(ctx context.Context, limit int) ([]Archive, error)
	GetDemo(ctx context.Context, id int64) (Demo, bool, error)
	SaveDemo(ctx context.Context, demo Demo, framecount, gold int) error
	MarkLost(ctx context.Context, id int64) error
}

// Maintenance is the bulk cleanup surface used by the sanitizer. Every
// method returns the number of rows removed.
type Maintenance interface {
	DeleteScoresByMetanetIDs(ctx context.Context, ids []int64) (int, error)
	DeleteArchivesByMetanetIDs(ctx context.Context, ids []int64) (int, error)
	DeletePlayersByMetanetIDs(ctx context.Context, ids []int64) (int, error)
	DeleteArchivesByReplayIDs(ctx context.Context, kind highscoreable.Kind, replayIDs []int64) (int, error)
	// DeleteDuplicateArchives keeps the oldest of archives sharing
	// highscoreable, player and score.
	DeleteDuplicateArchives(ctx context.Context) (int, error)
	DeleteOrphanDemos(ctx context.Context) (int, error)
}
