package player

import (
	"fmt"
	"strings"
)

// Player is a leaderboard participant, identified upstream by its metanet id.
type Player struct {
	ID        int64
	MetanetID int64
	Name      string
}

func (p Player) Validate() error {
	if p.MetanetID < 0 {
		return fmt.Errorf("player metanet id must be >= 0")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}

	return nil
}
