package memory

import (
	"context"

	"github.com/riskibarqy/nleaderboard/internal/domain/player"
)

type PlayerRepository struct {
	db *Database
}

func NewPlayerRepository(db *Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByMetanetID(_ context.Context, metanetID int64) (player.Player, bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.playerByMetanet[metanetID]
	if !ok {
		return player.Player{}, false, nil
	}
	return r.db.players[id], true, nil
}

func (r *PlayerRepository) FindOrCreate(_ context.Context, metanetID int64, name string) (player.Player, error) {
	return r.db.findOrCreatePlayer(metanetID, name), nil
}
