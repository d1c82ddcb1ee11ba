package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

type ArchiveRepository struct {
	db *Database
}

func NewArchiveRepository(db *Database) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// archivesOf must be called with db.mu held.
func (db *Database) archivesOf(ref highscoreable.Ref) []archive.Archive {
	out := make([]archive.Archive, 0)
	for _, a := range db.archives {
		if a.Ref == ref {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ArchiveRepository) ListByRef(_ context.Context, ref highscoreable.Ref) ([]archive.Archive, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.archivesOf(ref), nil
}

func (r *ArchiveRepository) GetByID(_ context.Context, id int64) (archive.Archive, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.archives[id]
	return a, ok, nil
}

func (r *ArchiveRepository) ListPendingDemos(_ context.Context, limit int) ([]archive.Archive, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]archive.Archive, 0)
	for id, data := range r.db.demos {
		a, ok := r.db.archives[id]
		if !ok || a.Lost || len(data) > 0 {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ArchiveRepository) SaveDemo(_ context.Context, demo archive.Demo, framecount, gold int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.archives[demo.ID]
	if !ok {
		return fmt.Errorf("archive %d does not exist", demo.ID)
	}
	a.Framecount = framecount
	a.Gold = gold
	a.Lost = false
	r.db.archives[demo.ID] = a
	r.db.demos[demo.ID] = cloneBytes(demo.Data)
	return nil
}

func (r *ArchiveRepository) MarkLost(_ context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.archives[id]
	if !ok {
		return fmt.Errorf("archive %d does not exist", id)
	}
	a.Lost = true
	r.db.archives[id] = a
	return nil
}

// GetDemo returns the stored payload of an archive.
func (r *ArchiveRepository) GetDemo(_ context.Context, id int64) (archive.Demo, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	data, ok := r.db.demos[id]
	if !ok {
		return archive.Demo{}, false, nil
	}
	return archive.Demo{ID: id, Data: cloneBytes(data)}, true, nil
}

func idSet(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (r *ArchiveRepository) DeleteScoresByMetanetIDs(_ context.Context, ids []int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	set := idSet(ids)
	removed := 0
	for ref, rows := range r.db.scores {
		kept := rows[:0:0]
		for _, row := range rows {
			if _, ok := set[row.MetanetID]; ok {
				removed++
				continue
			}
			kept = append(kept, row)
		}
		r.db.scores[ref] = kept
	}
	for id, row := range r.db.mappackScores {
		if _, ok := set[row.MetanetID]; ok {
			delete(r.db.mappackScores, id)
			delete(r.db.mappackDemos, id)
			removed++
		}
	}
	return removed, nil
}

func (r *ArchiveRepository) DeleteArchivesByMetanetIDs(_ context.Context, ids []int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	set := idSet(ids)
	return r.db.deleteArchivesWhere(func(a archive.Archive) bool {
		_, ok := set[a.MetanetID]
		return ok
	}), nil
}

func (r *ArchiveRepository) DeletePlayersByMetanetIDs(_ context.Context, ids []int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	removed := 0
	for _, metanetID := range ids {
		id, ok := r.db.playerByMetanet[metanetID]
		if !ok {
			continue
		}
		delete(r.db.players, id)
		delete(r.db.playerByMetanet, metanetID)
		removed++
	}
	return removed, nil
}

func (r *ArchiveRepository) DeleteArchivesByReplayIDs(_ context.Context, kind highscoreable.Kind, replayIDs []int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	set := idSet(replayIDs)
	return r.db.deleteArchivesWhere(func(a archive.Archive) bool {
		_, ok := set[a.ReplayID]
		return ok && a.Ref.Kind == kind
	}), nil
}

func (r *ArchiveRepository) DeleteDuplicateArchives(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	type key struct {
		ref      highscoreable.Ref
		playerID int64
		score    int64
	}
	oldest := make(map[key]int64)
	for id, a := range r.db.archives {
		k := key{ref: a.Ref, playerID: a.PlayerID, score: a.Score}
		if cur, ok := oldest[k]; !ok || id < cur {
			oldest[k] = id
		}
	}
	return r.db.deleteArchivesWhere(func(a archive.Archive) bool {
		return oldest[key{ref: a.Ref, playerID: a.PlayerID, score: a.Score}] != a.ID
	}), nil
}

func (r *ArchiveRepository) DeleteOrphanDemos(_ context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	removed := 0
	for id := range r.db.demos {
		if _, ok := r.db.archives[id]; !ok {
			delete(r.db.demos, id)
			removed++
		}
	}
	return removed, nil
}

// deleteArchivesWhere removes matching archives and their demos. It must
// be called with db.mu held.
func (db *Database) deleteArchivesWhere(match func(archive.Archive) bool) int {
	removed := 0
	for id, a := range db.archives {
		if !match(a) {
			continue
		}
		delete(db.archives, id)
		delete(db.demos, id)
		removed++
	}
	return removed
}
