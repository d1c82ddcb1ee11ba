package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	qb "github.com/riskibarqy/nleaderboard/internal/platform/querybuilder"
)

type ArchiveRepository struct {
	db *sqlx.DB
}

func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

func (r *ArchiveRepository) ListByRef(ctx context.Context, ref highscoreable.Ref) ([]archive.Archive, error) {
	return listArchives(ctx, r.db, ref)
}

func (r *ArchiveRepository) GetByID(ctx context.Context, id int64) (archive.Archive, bool, error) {
	query, args, err := qb.Select(archiveColumns...).From("archives").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return archive.Archive{}, false, fmt.Errorf("build select archive query: %w", err)
	}

	var row archiveRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return archive.Archive{}, false, nil
		}
		return archive.Archive{}, false, fmt.Errorf("get archive %d: %w", id, err)
	}
	return row.toDomain(), true, nil
}

func (r *ArchiveRepository) ListPendingDemos(ctx context.Context, limit int) ([]archive.Archive, error) {
	query := `
SELECT a.id, a.kind, a.highscoreable_id, a.player_id, a.metanet_id, a.replay_id,
       a.score, a.date, a.tab, a.lost, a.expired, a.framecount, a.gold
FROM archives a
JOIN demos d ON d.id = a.id
WHERE a.lost = FALSE
  AND octet_length(d.data) = 0
ORDER BY a.id`
	args := []any{}
	if limit > 0 {
		query += "\nLIMIT $1"
		args = append(args, limit)
	}

	var rows []archiveRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select pending demos: %w", err)
	}
	return archivesFromRows(rows), nil
}

func (r *ArchiveRepository) GetDemo(ctx context.Context, id int64) (archive.Demo, bool, error) {
	var data []byte
	if err := r.db.GetContext(ctx, &data, `SELECT data FROM demos WHERE id = $1`, id); err != nil {
		if isNotFound(err) {
			return archive.Demo{}, false, nil
		}
		return archive.Demo{}, false, fmt.Errorf("get demo %d: %w", id, err)
	}
	return archive.Demo{ID: id, Data: data}, true, nil
}

// SaveDemo stores the payload and the values derived from it in one
// transaction.
func (r *ArchiveRepository) SaveDemo(ctx context.Context, demo archive.Demo, framecount, gold int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for demo %d: %w", demo.ID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertInto("demos").
		Columns("id", "data").
		Values(demo.ID, demo.Data).
		OnConflict("id").DoUpdate("data").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save demo query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save demo %d: %w", demo.ID, err)
	}

	query, args, err = qb.Update("archives").
		Set("framecount", framecount).
		Set("gold", gold).
		Set("lost", false).
		Where(qb.Eq("id", demo.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update archive query: %w", err)
	}
	n, err := execCount(ctx, tx, query, args...)
	if err != nil {
		return fmt.Errorf("update archive %d: %w", demo.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("archive %d does not exist", demo.ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit demo %d: %w", demo.ID, err)
	}
	return nil
}

func (r *ArchiveRepository) MarkLost(ctx context.Context, id int64) error {
	query, args, err := qb.Update("archives").
		Set("lost", true).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark lost query: %w", err)
	}
	n, err := execCount(ctx, r.db, query, args...)
	if err != nil {
		return fmt.Errorf("mark archive %d lost: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("archive %d does not exist", id)
	}
	return nil
}

func (r *ArchiveRepository) DeleteScoresByMetanetIDs(ctx context.Context, ids []int64) (int, error) {
	total := 0
	for _, table := range []string{"scores", "mappack_scores"} {
		query, args, err := qb.DeleteFrom(table).
			Where(qb.In("metanet_id", int64SliceToAny(ids))).
			ToSQL()
		if err != nil {
			return total, fmt.Errorf("build delete %s query: %w", table, err)
		}
		n, err := execCount(ctx, r.db, query, args...)
		if err != nil {
			return total, fmt.Errorf("delete %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}

func (r *ArchiveRepository) DeleteArchivesByMetanetIDs(ctx context.Context, ids []int64) (int, error) {
	return r.deleteArchivesWhere(ctx, qb.In("metanet_id", int64SliceToAny(ids)))
}

func (r *ArchiveRepository) DeletePlayersByMetanetIDs(ctx context.Context, ids []int64) (int, error) {
	query, args, err := qb.DeleteFrom("players").
		Where(qb.In("metanet_id", int64SliceToAny(ids))).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete players query: %w", err)
	}
	n, err := execCount(ctx, r.db, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete players: %w", err)
	}
	return n, nil
}

func (r *ArchiveRepository) DeleteArchivesByReplayIDs(ctx context.Context, kind highscoreable.Kind, replayIDs []int64) (int, error) {
	return r.deleteArchivesWhere(ctx,
		qb.Eq("kind", string(kind)),
		qb.In("replay_id", int64SliceToAny(replayIDs)),
	)
}

func (r *ArchiveRepository) DeleteDuplicateArchives(ctx context.Context) (int, error) {
	return r.deleteArchivesWhere(ctx, qb.Expr(`id NOT IN (
    SELECT MIN(id) FROM archives GROUP BY kind, highscoreable_id, player_id, score
)`))
}

func (r *ArchiveRepository) DeleteOrphanDemos(ctx context.Context) (int, error) {
	const deleteQuery = `
DELETE FROM demos d
WHERE NOT EXISTS (SELECT 1 FROM archives a WHERE a.id = d.id)`
	n, err := execCount(ctx, r.db, deleteQuery)
	if err != nil {
		return 0, fmt.Errorf("delete orphan demos: %w", err)
	}
	return n, nil
}

// deleteArchivesWhere removes matching archives together with their demos.
func (r *ArchiveRepository) deleteArchivesWhere(ctx context.Context, conditions ...qb.Condition) (int, error) {
	query, args, err := qb.Select("id").From("archives").Where(conditions...).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build select archives query: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx for archive delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var ids []int64
	if err := tx.SelectContext(ctx, &ids, query+" FOR UPDATE", args...); err != nil {
		return 0, fmt.Errorf("select archives to delete: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	for _, table := range []string{"demos", "archives"} {
		del, delArgs, err := qb.DeleteFrom(table).Where(qb.In("id", int64SliceToAny(ids))).ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build delete %s query: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
			return 0, fmt.Errorf("delete %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit archive delete: %w", err)
	}
	return len(ids), nil
}
