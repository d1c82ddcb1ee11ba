package postgres

import (
	"database/sql"
	"fmt"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
)

type highscoreableRow struct {
	Kind        string         `db:"kind"`
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Tab         string         `db:"tab"`
	Mode        int16          `db:"mode"`
	Gold        int            `db:"gold"`
	Completions int            `db:"completions"`
	ParentID    sql.NullInt64  `db:"parent_id"`
	MappackID   sql.NullInt64  `db:"mappack_id"`
	AuthorID    sql.NullInt64  `db:"author_id"`
	Author      sql.NullString `db:"author"`
	Favs        int            `db:"favs"`
	Scored      bool           `db:"scored"`
}

var highscoreableColumns = []string{
	"kind", "id", "name", "tab", "mode", "gold", "completions",
	"parent_id", "mappack_id", "author_id", "author", "favs", "scored",
}

func newHighscoreableRow(h highscoreable.Highscoreable) highscoreableRow {
	meta := h.Info()
	row := highscoreableRow{
		Kind:        string(h.Ref().Kind),
		ID:          meta.ID,
		Name:        meta.Name,
		Tab:         string(meta.Tab),
		Mode:        int16(meta.Mode),
		Gold:        meta.Gold,
		Completions: meta.Completions,
	}
	parent := func(id int64) sql.NullInt64 { return sql.NullInt64{Int64: id, Valid: true} }

	switch v := h.(type) {
	case highscoreable.Level:
		row.ParentID = parent(v.EpisodeID)
	case highscoreable.Episode:
		row.ParentID = parent(v.StoryID)
	case highscoreable.Userlevel:
		row.AuthorID = sql.NullInt64{Int64: v.AuthorID, Valid: true}
		row.Author = sql.NullString{String: v.Author, Valid: true}
		row.Favs = v.Favs
		row.Scored = v.Scored
	case highscoreable.MappackLevel:
		row.ParentID = parent(v.EpisodeID)
		row.MappackID = parent(v.MappackID)
	case highscoreable.MappackEpisode:
		row.ParentID = parent(v.StoryID)
		row.MappackID = parent(v.MappackID)
	case highscoreable.MappackStory:
		row.MappackID = parent(v.MappackID)
	}
	return row
}

func (r highscoreableRow) toDomain() (highscoreable.Highscoreable, error) {
	kind, err := highscoreable.ParseKind(r.Kind)
	if err != nil {
		return nil, err
	}
	meta := highscoreable.Meta{
		ID:          r.ID,
		Name:        r.Name,
		Tab:         highscoreable.Tab(r.Tab),
		Mode:        highscoreable.Mode(r.Mode),
		Gold:        r.Gold,
		Completions: r.Completions,
	}

	switch kind {
	case highscoreable.KindLevel:
		return highscoreable.Level{Meta: meta, EpisodeID: r.ParentID.Int64}, nil
	case highscoreable.KindEpisode:
		return highscoreable.Episode{Meta: meta, StoryID: r.ParentID.Int64}, nil
	case highscoreable.KindStory:
		return highscoreable.Story{Meta: meta}, nil
	case highscoreable.KindUserlevel:
		return highscoreable.Userlevel{
			Meta:     meta,
			AuthorID: r.AuthorID.Int64,
			Author:   r.Author.String,
			Favs:     r.Favs,
			Scored:   r.Scored,
		}, nil
	case highscoreable.KindMappackLevel:
		return highscoreable.MappackLevel{Meta: meta, MappackID: r.MappackID.Int64, EpisodeID: r.ParentID.Int64}, nil
	case highscoreable.KindMappackEpisode:
		return highscoreable.MappackEpisode{Meta: meta, MappackID: r.MappackID.Int64, StoryID: r.ParentID.Int64}, nil
	case highscoreable.KindMappackStory:
		return highscoreable.MappackStory{Meta: meta, MappackID: r.MappackID.Int64}, nil
	default:
		return nil, fmt.Errorf("unsupported highscoreable kind %q", r.Kind)
	}
}
