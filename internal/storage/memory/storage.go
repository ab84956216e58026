package memory

import (
	"context"
	"sync"

	"github.com/mcoot/tapduel/internal/model"
	"github.com/mcoot/tapduel/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	profiles map[model.PlayerID]*model.Profile
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles: make(map[model.PlayerID]*model.Profile),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.profiles[profile.ID] = &copied
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := make([]*model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		copied := *p
		profiles = append(profiles, &copied)
	}
	return profiles, nil
}
