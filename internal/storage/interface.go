package storage

import (
	"context"

	"github.com/mcoot/tapduel/internal/model"
)

// Storage defines the interface for the persisted player-profile mirror.
// In-memory state is authoritative for gameplay; this store is a best-effort
// mirror, so callers log failures instead of propagating them.
type Storage interface {
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error)
	ListProfiles(ctx context.Context) ([]*model.Profile, error)
}
