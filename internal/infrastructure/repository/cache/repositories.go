package cache

import (
	"context"
	"slices"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
	basecache "github.com/riskibarqy/nleaderboard/internal/platform/cache"
)

const (
	nsHighscoreable = "highscoreable"
	nsScore         = "score"
	nsArchive       = "archive"
)

func highscoreableKey(ref highscoreable.Ref) string {
	return basecache.Key(nsHighscoreable, ref.String())
}

func highscoreableListKey(kind highscoreable.Kind) string {
	return basecache.Key(nsHighscoreable, "all", string(kind))
}

func scoreListKey(ref highscoreable.Ref) string {
	return basecache.Key(nsScore, ref.String())
}

func archiveListKey(ref highscoreable.Ref) string {
	return basecache.Key(nsArchive, ref.String())
}

type HighscoreableRepository struct {
	next  highscoreable.Repository
	cache *basecache.Store
}

func NewHighscoreableRepository(next highscoreable.Repository, cache *basecache.Store) *HighscoreableRepository {
	return &HighscoreableRepository{next: next, cache: cache}
}

func (r *HighscoreableRepository) Get(ctx context.Context, ref highscoreable.Ref) (highscoreable.Highscoreable, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, highscoreableKey(ref), func(ctx context.Context) (lookup, error) {
		item, exists, err := r.next.Get(ctx, ref)
		return lookup{value: item, exists: exists}, err
	})
	if err != nil {
		return nil, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *HighscoreableRepository) ListByKind(ctx context.Context, kind highscoreable.Kind) ([]highscoreable.Highscoreable, error) {
	items, err := basecache.Load(ctx, r.cache, highscoreableListKey(kind), func(ctx context.Context) ([]highscoreable.Highscoreable, error) {
		return r.next.ListByKind(ctx, kind)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (r *HighscoreableRepository) Upsert(ctx context.Context, items []highscoreable.Highscoreable) error {
	if err := r.next.Upsert(ctx, items); err != nil {
		return err
	}
	for _, item := range items {
		r.cache.Drop(highscoreableKey(item.Ref()), highscoreableListKey(item.Ref().Kind))
	}
	return nil
}

// lookup keeps negative results cacheable.
type lookup struct {
	value  highscoreable.Highscoreable
	exists bool
}

type scoreStore interface {
	score.Repository
	score.Store
}

// ScoreRepository caches current boards. A committed refresh drops the
// board and the archive list of the same highscoreable.
type ScoreRepository struct {
	next  scoreStore
	cache *basecache.Store
}

func NewScoreRepository(next scoreStore, cache *basecache.Store) *ScoreRepository {
	return &ScoreRepository{next: next, cache: cache}
}

func (r *ScoreRepository) ListByRef(ctx context.Context, ref highscoreable.Ref) ([]score.Score, error) {
	items, err := basecache.Load(ctx, r.cache, scoreListKey(ref), func(ctx context.Context) ([]score.Score, error) {
		return r.next.ListByRef(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (r *ScoreRepository) WithinBoard(ctx context.Context, ref highscoreable.Ref, fn func(ctx context.Context, tx score.Tx) error) error {
	if err := r.next.WithinBoard(ctx, ref, fn); err != nil {
		return err
	}
	r.cache.Drop(scoreListKey(ref), archiveListKey(ref))
	return nil
}

type archiveStore interface {
	archive.Repository
	archive.Maintenance
}

// ArchiveRepository caches per-highscoreable history. Any write drops
// every cached history since demo and cleanup writes span highscoreables.
type ArchiveRepository struct {
	next  archiveStore
	cache *basecache.Store
}

func NewArchiveRepository(next archiveStore, cache *basecache.Store) *ArchiveRepository {
	return &ArchiveRepository{next: next, cache: cache}
}

func (r *ArchiveRepository) ListByRef(ctx context.Context, ref highscoreable.Ref) ([]archive.Archive, error) {
	items, err := basecache.Load(ctx, r.cache, archiveListKey(ref), func(ctx context.Context) ([]archive.Archive, error) {
		return r.next.ListByRef(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

func (r *ArchiveRepository) GetByID(ctx context.Context, id int64) (archive.Archive, bool, error) {
	return r.next.GetByID(ctx, id)
}

func (r *ArchiveRepository) ListPendingDemos(ctx context.Context, limit int) ([]archive.Archive, error) {
	return r.next.ListPendingDemos(ctx, limit)
}

func (r *ArchiveRepository) GetDemo(ctx context.Context, id int64) (archive.Demo, bool, error) {
	return r.next.GetDemo(ctx, id)
}

func (r *ArchiveRepository) SaveDemo(ctx context.Context, demo archive.Demo, framecount, gold int) error {
	defer r.cache.DropNamespace(nsArchive)
	return r.next.SaveDemo(ctx, demo, framecount, gold)
}

func (r *ArchiveRepository) MarkLost(ctx context.Context, id int64) error {
	defer r.cache.DropNamespace(nsArchive)
	return r.next.MarkLost(ctx, id)
}

func (r *ArchiveRepository) DeleteScoresByMetanetIDs(ctx context.Context, ids []int64) (int, error) {
	defer r.cache.DropNamespace(nsScore)
	return r.next.DeleteScoresByMetanetIDs(ctx, ids)
}

func (r *ArchiveRepository) DeleteArchivesByMetanetIDs(ctx context.Context, ids []int64) (int, error) {
	defer r.cache.DropNamespace(nsArchive)
	return r.next.DeleteArchivesByMetanetIDs(ctx, ids)
}

func (r *ArchiveRepository) DeletePlayersByMetanetIDs(ctx context.Context, ids []int64) (int, error) {
	return r.next.DeletePlayersByMetanetIDs(ctx, ids)
}

func (r *ArchiveRepository) DeleteArchivesByReplayIDs(ctx context.Context, kind highscoreable.Kind, replayIDs []int64) (int, error) {
	defer r.cache.DropNamespace(nsArchive)
	return r.next.DeleteArchivesByReplayIDs(ctx, kind, replayIDs)
}

func (r *ArchiveRepository) DeleteDuplicateArchives(ctx context.Context) (int, error) {
	defer r.cache.DropNamespace(nsArchive)
	return r.next.DeleteDuplicateArchives(ctx)
}

func (r *ArchiveRepository) DeleteOrphanDemos(ctx context.Context) (int, error) {
	return r.next.DeleteOrphanDemos(ctx)
}
