package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	GetByMetanetID(ctx context.Context, metanetID int64) (Player, bool, error)
	// FindOrCreate returns the player for metanetID, creating it when new and
	// refreshing the stored name when it changed upstream.
	FindOrCreate(ctx context.Context, metanetID int64, name string) (Player, error)
}
