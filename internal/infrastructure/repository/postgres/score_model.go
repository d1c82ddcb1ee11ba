package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"github.com/riskibarqy/nleaderboard/internal/domain/mappack"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
)

type scoreRow struct {
	Kind            string `db:"kind"`
	HighscoreableID int64  `db:"highscoreable_id"`
	Rank            int    `db:"rank"`
	TiedRank        int    `db:"tied_rank"`
	Score           int64  `db:"score"`
	PlayerID        int64  `db:"player_id"`
	MetanetID       int64  `db:"metanet_id"`
	PlayerName      string `db:"player_name"`
	ReplayID        int64  `db:"replay_id"`
	Tab             string `db:"tab"`
	Cool            bool   `db:"cool"`
	Star            bool   `db:"star"`
}

func (r scoreRow) toDomain() score.Score {
	return score.Score{
		Ref:        highscoreable.Ref{Kind: highscoreable.Kind(r.Kind), ID: r.HighscoreableID},
		Rank:       r.Rank,
		TiedRank:   r.TiedRank,
		Score:      r.Score,
		PlayerID:   r.PlayerID,
		MetanetID:  r.MetanetID,
		PlayerName: r.PlayerName,
		ReplayID:   r.ReplayID,
		Tab:        highscoreable.Tab(r.Tab),
		Cool:       r.Cool,
		Star:       r.Star,
	}
}

type archiveRow struct {
	ID              int64     `db:"id"`
	Kind            string    `db:"kind"`
	HighscoreableID int64     `db:"highscoreable_id"`
	PlayerID        int64     `db:"player_id"`
	MetanetID       int64     `db:"metanet_id"`
	ReplayID        int64     `db:"replay_id"`
	Score           int64     `db:"score"`
	Date            time.Time `db:"date"`
	Tab             string    `db:"tab"`
	Lost            bool      `db:"lost"`
	Expired         bool      `db:"expired"`
	Framecount      int       `db:"framecount"`
	Gold            int       `db:"gold"`
}

var archiveColumns = []string{
	"id", "kind", "highscoreable_id", "player_id", "metanet_id", "replay_id",
	"score", "date", "tab", "lost", "expired", "framecount", "gold",
}

func (r archiveRow) toDomain() archive.Archive {
	return archive.Archive{
		ID:         r.ID,
		Ref:        highscoreable.Ref{Kind: highscoreable.Kind(r.Kind), ID: r.HighscoreableID},
		PlayerID:   r.PlayerID,
		MetanetID:  r.MetanetID,
		ReplayID:   r.ReplayID,
		Score:      r.Score,
		Date:       r.Date.UTC(),
		Tab:        highscoreable.Tab(r.Tab),
		Lost:       r.Lost,
		Expired:    r.Expired,
		Framecount: r.Framecount,
		Gold:       r.Gold,
	}
}

func archivesFromRows(rows []archiveRow) []archive.Archive {
	out := make([]archive.Archive, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

type mappackScoreRow struct {
	ID              int64         `db:"id"`
	MappackID       int64         `db:"mappack_id"`
	Kind            string        `db:"kind"`
	HighscoreableID int64         `db:"highscoreable_id"`
	PlayerID        int64         `db:"player_id"`
	MetanetID       int64         `db:"metanet_id"`
	PlayerName      string        `db:"player_name"`
	ScoreHS         int64         `db:"score_hs"`
	ScoreSR         int64         `db:"score_sr"`
	RankHS          sql.NullInt64 `db:"rank_hs"`
	TiedRankHS      sql.NullInt64 `db:"tied_rank_hs"`
	RankSR          sql.NullInt64 `db:"rank_sr"`
	TiedRankSR      sql.NullInt64 `db:"tied_rank_sr"`
	Gold            int           `db:"gold"`
	Tab             string        `db:"tab"`
	Date            time.Time     `db:"date"`
}

func (r mappackScoreRow) toDomain() mappack.Score {
	return mappack.Score{
		ID:         r.ID,
		MappackID:  r.MappackID,
		Ref:        highscoreable.Ref{Kind: highscoreable.Kind(r.Kind), ID: r.HighscoreableID},
		PlayerID:   r.PlayerID,
		MetanetID:  r.MetanetID,
		PlayerName: r.PlayerName,
		ScoreHS:    r.ScoreHS,
		ScoreSR:    r.ScoreSR,
		RankHS:     nullIntToPtr(r.RankHS),
		TiedRankHS: nullIntToPtr(r.TiedRankHS),
		RankSR:     nullIntToPtr(r.RankSR),
		TiedRankSR: nullIntToPtr(r.TiedRankSR),
		Gold:       r.Gold,
		Tab:        highscoreable.Tab(r.Tab),
		Date:       r.Date.UTC(),
	}
}
