package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/mappack"
	qb "github.com/riskibarqy/nleaderboard/internal/platform/querybuilder"
)

type MappackRepository struct {
	db *sqlx.DB
}

func NewMappackRepository(db *sqlx.DB) *MappackRepository {
	return &MappackRepository{db: db}
}

const selectMappackScoresQuery = `
SELECT m.id, m.mappack_id, m.kind, m.highscoreable_id, m.player_id, m.metanet_id,
       p.name AS player_name, m.score_hs, m.score_sr, m.rank_hs, m.tied_rank_hs,
       m.rank_sr, m.tied_rank_sr, m.gold, m.tab, m.date
FROM mappack_scores m
JOIN players p ON p.id = m.player_id`

func (r *MappackRepository) ListByRef(ctx context.Context, ref highscoreable.Ref) ([]mappack.Score, error) {
	return listMappackScores(ctx, r.db, ref)
}

func (r *MappackRepository) ListFrom(ctx context.Context, minID int64) ([]mappack.Score, error) {
	query := selectMappackScoresQuery + `
WHERE m.id >= $1
ORDER BY m.id`

	var rows []mappackScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, minID); err != nil {
		return nil, fmt.Errorf("select mappack scores from %d: %w", minID, err)
	}
	return mappackScoresFromRows(rows), nil
}

func (r *MappackRepository) GetDemo(ctx context.Context, id int64) ([]byte, bool, error) {
	var data []byte
	if err := r.db.GetContext(ctx, &data, `SELECT data FROM mappack_demos WHERE id = $1`, id); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get mappack demo %d: %w", id, err)
	}
	return data, true, nil
}

func (r *MappackRepository) WithinBoard(ctx context.Context, ref highscoreable.Ref, fn func(ctx context.Context, tx mappack.Tx) error) error {
	return withinBoard(ctx, r.db, ref, func(tx *sqlx.Tx) error {
		return fn(ctx, &mappackTx{tx: tx})
	})
}

type mappackTx struct {
	tx *sqlx.Tx
}

func (t *mappackTx) ListScores(ctx context.Context, ref highscoreable.Ref) ([]mappack.Score, error) {
	return listMappackScores(ctx, t.tx, ref)
}

func (t *mappackTx) Invalidate(ctx context.Context, ref highscoreable.Ref, playerID int64, board mappack.Board) error {
	rank, tied := "rank_"+string(board), "tied_rank_"+string(board)
	query, args, err := qb.Update("mappack_scores").
		SetNull(rank).
		SetNull(tied).
		Where(
			qb.Eq("kind", string(ref.Kind)),
			qb.Eq("highscoreable_id", ref.ID),
			qb.Eq("player_id", playerID),
			qb.NotNull(rank),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build invalidate query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("invalidate %s scores of player %d: %w", board, playerID, err)
	}
	return nil
}

func (t *mappackTx) InsertScore(ctx context.Context, item mappack.Score) (int64, error) {
	query, args, err := qb.InsertInto("mappack_scores").
		Columns("mappack_id", "kind", "highscoreable_id", "player_id", "metanet_id", "score_hs", "score_sr",
			"rank_hs", "tied_rank_hs", "rank_sr", "tied_rank_sr", "gold", "tab", "date").
		Values(item.MappackID, string(item.Ref.Kind), item.Ref.ID, item.PlayerID, item.MetanetID, item.ScoreHS, item.ScoreSR,
			ptrToNullInt(item.RankHS), ptrToNullInt(item.TiedRankHS), ptrToNullInt(item.RankSR), ptrToNullInt(item.TiedRankSR),
			item.Gold, string(item.Tab), item.Date).
		Returning("id").
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build insert mappack score query: %w", err)
	}

	var id int64
	if err := t.tx.GetContext(ctx, &id, query, args...); err != nil {
		return 0, fmt.Errorf("insert mappack score: %w", err)
	}
	return id, nil
}

func (t *mappackTx) SaveDemo(ctx context.Context, id int64, data []byte) error {
	query, args, err := qb.InsertInto("mappack_demos").
		Columns("id", "data").
		Values(id, data).
		OnConflict("id").DoUpdate("data").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save mappack demo query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save mappack demo %d: %w", id, err)
	}
	return nil
}

func (t *mappackTx) UpdateRanks(ctx context.Context, board mappack.Board, updates []mappack.RankUpdate) error {
	for _, u := range updates {
		query, args, err := qb.Update("mappack_scores").
			Set("rank_"+string(board), u.Rank).
			Set("tied_rank_"+string(board), u.TiedRank).
			Where(qb.Eq("id", u.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update ranks query: %w", err)
		}
		n, err := execCount(ctx, t.tx, query, args...)
		if err != nil {
			return fmt.Errorf("update %s rank of score %d: %w", board, u.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("mappack score %d does not exist", u.ID)
		}
	}
	return nil
}

func listMappackScores(ctx context.Context, db sqlx.QueryerContext, ref highscoreable.Ref) ([]mappack.Score, error) {
	query := selectMappackScoresQuery + `
WHERE m.kind = $1
  AND m.highscoreable_id = $2
ORDER BY m.id`

	var rows []mappackScoreRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, string(ref.Kind), ref.ID); err != nil {
		return nil, fmt.Errorf("select mappack scores of %s: %w", ref, err)
	}
	return mappackScoresFromRows(rows), nil
}

func mappackScoresFromRows(rows []mappackScoreRow) []mappack.Score {
	out := make([]mappack.Score, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
