package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nleaderboard/internal/domain/player"
	qb "github.com/riskibarqy/nleaderboard/internal/platform/querybuilder"
)

type playerRow struct {
	ID        int64  `db:"id"`
	MetanetID int64  `db:"metanet_id"`
	Name      string `db:"name"`
}

func (r playerRow) toDomain() player.Player {
	return player.Player{ID: r.ID, MetanetID: r.MetanetID, Name: r.Name}
}

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByMetanetID(ctx context.Context, metanetID int64) (player.Player, bool, error) {
	query, args, err := qb.Select("id", "metanet_id", "name").From("players").
		Where(qb.Eq("metanet_id", metanetID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player %d: %w", metanetID, err)
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) FindOrCreate(ctx context.Context, metanetID int64, name string) (player.Player, error) {
	return findOrCreatePlayer(ctx, r.db, metanetID, name)
}

// findOrCreatePlayer upserts on metanet_id; a blank name never overwrites
// a stored one.
func findOrCreatePlayer(ctx context.Context, db sqlx.QueryerContext, metanetID int64, name string) (player.Player, error) {
	const upsertQuery = `
INSERT INTO players (metanet_id, name)
VALUES ($1, $2)
ON CONFLICT (metanet_id)
DO UPDATE SET
    name = CASE WHEN EXCLUDED.name = '' THEN players.name ELSE EXCLUDED.name END,
    updated_at = NOW()
RETURNING id, metanet_id, name`

	var row playerRow
	if err := sqlx.GetContext(ctx, db, &row, upsertQuery, metanetID, name); err != nil {
		return player.Player{}, fmt.Errorf("upsert player %d: %w", metanetID, err)
	}
	return row.toDomain(), nil
}
