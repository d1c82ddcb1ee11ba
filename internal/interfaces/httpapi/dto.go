package httpapi

import (
	"time"

	"github.com/riskibarqy/nleaderboard/internal/domain/archive"
	"github.com/riskibarqy/nleaderboard/internal/domain/mappack"
	"github.com/riskibarqy/nleaderboard/internal/domain/score"
)

type scoreDTO struct {
	Rank       int     `json:"rank"`
	TiedRank   int     `json:"tied_rank"`
	Score      float64 `json:"score"`
	PlayerName string  `json:"player_name"`
	MetanetID  int64   `json:"metanet_id"`
	ReplayID   int64   `json:"replay_id"`
	Tab        string  `json:"tab,omitempty"`
	Cool       bool    `json:"cool"`
	Star       bool    `json:"star"`
}

type archiveDTO struct {
	ID         int64     `json:"id"`
	MetanetID  int64     `json:"metanet_id"`
	ReplayID   int64     `json:"replay_id"`
	Frames     int64     `json:"frames"`
	Date       time.Time `json:"date"`
	Framecount int       `json:"framecount"`
	Gold       int       `json:"gold"`
	Lost       bool      `json:"lost"`
}

type mappackScoreDTO struct {
	ID         int64  `json:"id"`
	Rank       *int   `json:"rank"`
	TiedRank   *int   `json:"tied_rank"`
	Score      int64  `json:"score"`
	PlayerName string `json:"player_name"`
	MetanetID  int64  `json:"metanet_id"`
	Gold       int    `json:"gold"`
}

type submissionRequest struct {
	UserID   int64  `json:"user_id" validate:"gte=0"`
	UserName string `json:"user_name" validate:"max=64"`
	QT       uint32 `json:"qt"`
	LevelID  int64  `json:"level_id" validate:"gte=0"`
	Score    int64  `json:"score" validate:"gte=0"`
	Demo     []byte `json:"demo" validate:"required"`
}

func scoreToDTO(v score.Score) scoreDTO {
	return scoreDTO{
		Rank:       v.Rank,
		TiedRank:   v.TiedRank,
		Score:      v.Seconds(),
		PlayerName: v.PlayerName,
		MetanetID:  v.MetanetID,
		ReplayID:   v.ReplayID,
		Tab:        string(v.Tab),
		Cool:       v.Cool,
		Star:       v.Star,
	}
}

func archiveToDTO(v archive.Archive) archiveDTO {
	return archiveDTO{
		ID:         v.ID,
		MetanetID:  v.MetanetID,
		ReplayID:   v.ReplayID,
		Frames:     v.Score,
		Date:       v.Date,
		Framecount: v.Framecount,
		Gold:       v.Gold,
		Lost:       v.Lost,
	}
}

func archivesToDTO(items []archive.Archive) []archiveDTO {
	out := make([]archiveDTO, 0, len(items))
	for _, item := range items {
		out = append(out, archiveToDTO(item))
	}
	return out
}

func mappackScoreToDTO(v mappack.Score, board mappack.Board) mappackScoreDTO {
	return mappackScoreDTO{
		ID:         v.ID,
		Rank:       v.Rank(board),
		TiedRank:   v.TiedRank(board),
		Score:      v.Value(board),
		PlayerName: v.PlayerName,
		MetanetID:  v.MetanetID,
		Gold:       v.Gold,
	}
}
