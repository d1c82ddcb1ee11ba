package memory

import (
	"context"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/player"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
)

type ScoreRepository struct {
	db *Database
}

func NewScoreRepository(db *Database) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) ListByRef(_ context.Context, ref highscoreable.Ref) ([]score.Score, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return append([]score.Score(nil), r.db.scores[ref]...), nil
}

func (r *ScoreRepository) WithinBoard(ctx context.Context, ref highscoreable.Ref, fn func(ctx context.Context, tx score.Tx) error) error {
	now := r.db.clock()
	return r.db.withinBoard(ctx, ref, func(undo *undoLog) error {
		return fn(ctx, &scoreTx{db: r.db, undo: undo, now: now})
	})
}

type scoreTx struct {
	db   *Database
	undo *undoLog
	now  time.Time
}

func (t *scoreTx) Now() time.Time { return t.now }

func (t *scoreTx) FindOrCreatePlayer(_ context.Context, metanetID int64, name string) (player.Player, error) {
	return t.db.findOrCreatePlayer(metanetID, name), nil
}

func (t *scoreTx) ListArchives(_ context.Context, ref highscoreable.Ref) ([]archive.Archive, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()
	return t.db.archivesOf(ref), nil
}

func (t *scoreTx) ArchiveExists(_ context.Context, kind highscoreable.Kind, replayID int64) (bool, error) {
	t.db.mu.RLock()
	defer t.db.mu.RUnlock()

	for _, a := range t.db.archives {
		if a.Ref.Kind == kind && a.ReplayID == replayID {
			return true, nil
		}
	}
	return false, nil
}

func (t *scoreTx) ExpireArchives(_ context.Context, ref highscoreable.Ref, playerID int64) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	for id, a := range t.db.archives {
		if a.Ref != ref || a.PlayerID != playerID || a.Expired {
			continue
		}
		prev := a
		a.Expired = true
		t.db.archives[id] = a
		t.undo.push(func() { t.db.archives[prev.ID] = prev })
	}
	return nil
}

func (t *scoreTx) InsertArchive(_ context.Context, item archive.Archive) (int64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.db.nextArchiveID++
	item.ID = t.db.nextArchiveID
	t.db.archives[item.ID] = item
	t.undo.push(func() { delete(t.db.archives, item.ID) })
	return item.ID, nil
}

func (t *scoreTx) InsertDemo(_ context.Context, demo archive.Demo) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.db.demos[demo.ID] = cloneBytes(demo.Data)
	t.undo.push(func() { delete(t.db.demos, demo.ID) })
	return nil
}

func (t *scoreTx) ReplaceScores(_ context.Context, ref highscoreable.Ref, rows []score.Score) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	prev, existed := t.db.scores[ref]
	t.db.scores[ref] = append([]score.Score(nil), rows...)
	t.undo.push(func() {
		if existed {
			t.db.scores[ref] = prev
			return
		}
		delete(t.db.scores, ref)
	})
	return nil
}
