package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	qb "github.com/riskibarqy/nleaderboard/internal/platform/querybuilder"
)

type HighscoreableRepository struct {
	db *sqlx.DB
}

func NewHighscoreableRepository(db *sqlx.DB) *HighscoreableRepository {
	return &HighscoreableRepository{db: db}
}

func (r *HighscoreableRepository) Get(ctx context.Context, ref highscoreable.Ref) (highscoreable.Highscoreable, bool, error) {
	query, args, err := qb.Select(highscoreableColumns...).From("highscoreables").
		Where(
			qb.Eq("kind", string(ref.Kind)),
			qb.Eq("id", ref.ID),
		).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build select highscoreable query: %w", err)
	}

	var row highscoreableRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get highscoreable %s: %w", ref, err)
	}
	h, err := row.toDomain()
	if err != nil {
		return nil, false, err
	}
	return h, true, nil
}

func (r *HighscoreableRepository) ListByKind(ctx context.Context, kind highscoreable.Kind) ([]highscoreable.Highscoreable, error) {
	query, args, err := qb.Select(highscoreableColumns...).From("highscoreables").
		Where(qb.Eq("kind", string(kind))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select highscoreables query: %w", err)
	}

	var rows []highscoreableRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select highscoreables of %s: %w", kind, err)
	}

	out := make([]highscoreable.Highscoreable, 0, len(rows))
	for _, row := range rows {
		h, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (r *HighscoreableRepository) Upsert(ctx context.Context, items []highscoreable.Highscoreable) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for highscoreable upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const upsertQuery = `
INSERT INTO highscoreables (kind, id, name, tab, mode, gold, completions, parent_id, mappack_id, author_id, author, favs, scored)
VALUES (:kind, :id, :name, :tab, :mode, :gold, :completions, :parent_id, :mappack_id, :author_id, :author, :favs, :scored)
ON CONFLICT (kind, id)
DO UPDATE SET
    name = EXCLUDED.name,
    tab = EXCLUDED.tab,
    mode = EXCLUDED.mode,
    gold = EXCLUDED.gold,
    completions = EXCLUDED.completions,
    parent_id = EXCLUDED.parent_id,
    mappack_id = EXCLUDED.mappack_id,
    author_id = EXCLUDED.author_id,
    author = EXCLUDED.author,
    favs = EXCLUDED.favs,
    scored = EXCLUDED.scored`

	for _, item := range items {
		if _, err := tx.NamedExecContext(ctx, upsertQuery, newHighscoreableRow(item)); err != nil {
			return fmt.Errorf("upsert highscoreable %s: %w", item.Ref(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit highscoreable upsert: %w", err)
	}
	return nil
}
