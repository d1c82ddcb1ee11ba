package highscoreable

import "context"

type Repository interface {
	Get(ctx context.Context, ref Ref) (Highscoreable, bool, error)
	ListByKind(ctx context.Context, kind Kind) ([]Highscoreable, error)
	Upsert(ctx context.Context, items []Highscoreable) error
}
