package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/mappack"
)

type MappackRepository struct {
	db *Database
}

func NewMappackRepository(db *Database) *MappackRepository {
	return &MappackRepository{db: db}
}

// mappackScoresOf must be called with db.mu held.
func (db *Database) mappackScoresOf(ref highscoreable.Ref) []mappack.Score {
	out := make([]mappack.Score, 0)
	for _, s := range db.mappackScores {
		if s.Ref == ref {
			out = append(out, cloneMappackScore(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MappackRepository) ListByRef(_ context.Context, ref highscoreable.Ref) ([]mappack.Score, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.mappackScoresOf(ref), nil
}

func (r *MappackRepository) ListFrom(_ context.Context, minID int64) ([]mappack.Score, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]mappack.Score, 0)
	for id, s := range r.db.mappackScores {
		if id >= minID {
			out = append(out, cloneMappackScore(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MappackRepository) GetDemo(_ context.Context, id int64) ([]byte, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	data, ok := r.db.mappackDemos[id]
	return cloneBytes(data), ok, nil
}

func (r *MappackRepository) WithinBoard(ctx context.Context, ref highscoreable.Ref, fn func(ctx context.Context, tx mappack.Tx) error) error {
	return r.db.withinBoard(ctx, ref, func(undo *undoLog) error {
		return fn(ctx, &mappackTx{db: r.db, undo: undo})
	})
}

type mappackTx struct {
	db   *Database
	undo *undoLog
}

func (t *mappackTx) ListScores(_ context.Context, ref highscoreable.Ref) ([]mappack.Score, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	return t.db.mappackScoresOf(ref), nil
}

func (t *mappackTx) Invalidate(_ context.Context, ref highscoreable.Ref, playerID int64, board mappack.Board) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	for id, s := range t.db.mappackScores {
		if s.Ref != ref || s.PlayerID != playerID || !s.Live(board) {
			continue
		}
		prev := cloneMappackScore(s)
		s = cloneMappackScore(s)
		s.SetRank(board, nil, nil)
		t.db.mappackScores[id] = s
		t.undo.push(func() { t.db.mappackScores[prev.ID] = prev })
	}
	return nil
}

func (t *mappackTx) InsertScore(_ context.Context, item mappack.Score) (int64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.db.nextMappackID++
	item = cloneMappackScore(item)
	item.ID = t.db.nextMappackID
	t.db.mappackScores[item.ID] = item
	t.undo.push(func() { delete(t.db.mappackScores, item.ID) })
	return item.ID, nil
}

func (t *mappackTx) SaveDemo(_ context.Context, id int64, data []byte) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	prev, existed := t.db.mappackDemos[id]
	t.db.mappackDemos[id] = cloneBytes(data)
	t.undo.push(func() {
		if existed {
			t.db.mappackDemos[id] = prev
			return
		}
		delete(t.db.mappackDemos, id)
	})
	return nil
}

func (t *mappackTx) UpdateRanks(_ context.Context, board mappack.Board, updates []mappack.RankUpdate) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	for _, u := range updates {
		s, ok := t.db.mappackScores[u.ID]
		if !ok {
			return fmt.Errorf("mappack score %d does not exist", u.ID)
		}
		prev := cloneMappackScore(s)
		s = cloneMappackScore(s)
		rank, tied := u.Rank, u.TiedRank
		s.SetRank(board, &rank, &tied)
		t.db.mappackScores[u.ID] = s
		t.undo.push(func() { t.db.mappackScores[prev.ID] = prev })
	}
	return nil
}
