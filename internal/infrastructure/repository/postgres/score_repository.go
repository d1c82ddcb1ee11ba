package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/player"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
	qb "github.com/riskibarqy/nleaderboard/internal/platform/querybuilder"
)

type ScoreRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db, now: time.Now}
}

const selectScoresQuery = `
SELECT s.kind, s.highscoreable_id, s.rank, s.tied_rank, s.score, s.player_id,
       s.metanet_id, p.name AS player_name, s.replay_id, s.tab, s.cool, s.star
FROM scores s
JOIN players p ON p.id = s.player_id
WHERE s.kind = $1
  AND s.highscoreable_id = $2
ORDER BY s.rank`

func (r *ScoreRepository) ListByRef(ctx context.Context, ref highscoreable.Ref) ([]score.Score, error) {
	var rows []scoreRow
	if err := r.db.SelectContext(ctx, &rows, selectScoresQuery, string(ref.Kind), ref.ID); err != nil {
		return nil, fmt.Errorf("select scores of %s: %w", ref, err)
	}

	out := make([]score.Score, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ScoreRepository) WithinBoard(ctx context.Context, ref highscoreable.Ref, fn func(ctx context.Context, tx score.Tx) error) error {
	return withinBoard(ctx, r.db, ref, func(tx *sqlx.Tx) error {
		return fn(ctx, &scoreTx{tx: tx, now: r.now().UTC()})
	})
}

type scoreTx struct {
	tx  *sqlx.Tx
	now time.Time
}

func (t *scoreTx) Now() time.Time { return t.now }

func (t *scoreTx) FindOrCreatePlayer(ctx context.Context, metanetID int64, name string) (player.Player, error) {
	return findOrCreatePlayer(ctx, t.tx, metanetID, name)
}

func (t *scoreTx) ListArchives(ctx context.Context, ref highscoreable.Ref) ([]archive.Archive, error) {
	return listArchives(ctx, t.tx, ref)
}

func (t *scoreTx) ArchiveExists(ctx context.Context, kind highscoreable.Kind, replayID int64) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM archives WHERE kind = $1 AND replay_id = $2)`,
		string(kind), replayID)
	if err != nil {
		return false, fmt.Errorf("check archive %d: %w", replayID, err)
	}
	return exists, nil
}

func (t *scoreTx) ExpireArchives(ctx context.Context, ref highscoreable.Ref, playerID int64) error {
	query, args, err := qb.Update("archives").
		Set("expired", true).
		Where(
			qb.Eq("kind", string(ref.Kind)),
			qb.Eq("highscoreable_id", ref.ID),
			qb.Eq("player_id", playerID),
			qb.Eq("expired", false),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build expire archives query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("expire archives: %w", err)
	}
	return nil
}

func (t *scoreTx) InsertArchive(ctx context.Context, item archive.Archive) (int64, error) {
	const insertQuery = `
INSERT INTO archives (kind, highscoreable_id, player_id, metanet_id, replay_id, score, date, tab, lost, expired, framecount, gold)
VALUES (:kind, :highscoreable_id, :player_id, :metanet_id, :replay_id, :score, :date, :tab, :lost, :expired, :framecount, :gold)
RETURNING id`

	query, args, err := sqlx.Named(insertQuery, archiveRow{
		Kind:            string(item.Ref.Kind),
		HighscoreableID: item.Ref.ID,
		PlayerID:        item.PlayerID,
		MetanetID:       item.MetanetID,
		ReplayID:        item.ReplayID,
		Score:           item.Score,
		Date:            item.Date,
		Tab:             string(item.Tab),
		Lost:            item.Lost,
		Expired:         item.Expired,
		Framecount:      item.Framecount,
		Gold:            item.Gold,
	})
	if err != nil {
		return 0, fmt.Errorf("bind insert archive query: %w", err)
	}

	var id int64
	if err := t.tx.GetContext(ctx, &id, t.tx.Rebind(query), args...); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("archive of replay %d already exists: %w", item.ReplayID, err)
		}
		return 0, fmt.Errorf("insert archive: %w", err)
	}
	return id, nil
}

func (t *scoreTx) InsertDemo(ctx context.Context, demo archive.Demo) error {
	data := demo.Data
	if data == nil {
		data = []byte{}
	}
	query, args, err := qb.InsertInto("demos").
		Columns("id", "data").
		Values(demo.ID, data).
		OnConflict("id").DoNothing().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert demo query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert demo %d: %w", demo.ID, err)
	}
	return nil
}

func (t *scoreTx) ReplaceScores(ctx context.Context, ref highscoreable.Ref, rows []score.Score) error {
	const deleteQuery = `DELETE FROM scores WHERE kind = $1 AND highscoreable_id = $2`
	if _, err := t.tx.ExecContext(ctx, deleteQuery, string(ref.Kind), ref.ID); err != nil {
		return fmt.Errorf("delete scores of %s: %w", ref, err)
	}

	for _, row := range rows {
		query, args, err := qb.InsertInto("scores").
			Columns("kind", "highscoreable_id", "rank", "tied_rank", "score", "player_id", "metanet_id", "replay_id", "tab", "cool", "star").
			Values(string(ref.Kind), ref.ID, row.Rank, row.TiedRank, row.Score, row.PlayerID, row.MetanetID, row.ReplayID, string(row.Tab), row.Cool, row.Star).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build insert score query: %w", err)
		}
		if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert score rank %d of %s: %w", row.Rank, ref, err)
		}
	}
	return nil
}

func listArchives(ctx context.Context, db sqlx.QueryerContext, ref highscoreable.Ref) ([]archive.Archive, error) {
	query, args, err := qb.Select(archiveColumns...).From("archives").
		Where(
			qb.Eq("kind", string(ref.Kind)),
			qb.Eq("highscoreable_id", ref.ID),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select archives query: %w", err)
	}

	var rows []archiveRow
	if err := sqlx.SelectContext(ctx, db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select archives of %s: %w", ref, err)
	}
	return archivesFromRows(rows), nil
}
