package mappack

import (
	"context"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

type Repository interface {
	ListByRef(ctx context.Context, ref highscoreable.Ref) ([]Score, error)
	// ListFrom returns every score with id >= minID, oldest first.
	ListFrom(ctx context.Context, minID int64) ([]Score, error)
	GetDemo(ctx context.Context, id int64) ([]byte, bool, error)
}

// Store serializes submissions to one highscoreable.
type Store interface {
	WithinBoard(ctx context.Context, ref highscoreable.Ref, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	ListScores(ctx context.Context, ref highscoreable.Ref) ([]Score, error)
	// Invalidate clears the rank of every row the player has on the board.
	Invalidate(ctx context.Context, ref highscoreable.Ref, playerID int64, board Board) error
	InsertScore(ctx context.Context, item Score) (int64, error)
	SaveDemo(ctx context.Context, id int64, data []byte) error
	UpdateRanks(ctx context.Context, board Board, updates []RankUpdate) error
}
