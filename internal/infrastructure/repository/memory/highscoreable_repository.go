package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

type HighscoreableRepository struct {
	db *Database
}

func NewHighscoreableRepository(db *Database) *HighscoreableRepository {
	return &HighscoreableRepository{db: db}
}

func (r *HighscoreableRepository) Get(_ context.Context, ref highscoreable.Ref) (highscoreable.Highscoreable, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	item, ok := r.db.highscoreables[ref]
	return item, ok, nil
}

func (r *HighscoreableRepository) ListByKind(_ context.Context, kind highscoreable.Kind) ([]highscoreable.Highscoreable, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]highscoreable.Highscoreable, 0)
	for ref, item := range r.db.highscoreables {
		if ref.Kind == kind {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref().ID < out[j].Ref().ID })
	return out, nil
}

func (r *HighscoreableRepository) Upsert(_ context.Context, items []highscoreable.Highscoreable) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, item := range items {
		r.db.highscoreables[item.Ref()] = item
	}
	return nil
}
