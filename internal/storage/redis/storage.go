package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tapduel/internal/model"
	"github.com/mcoot/tapduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	// Pipeline the value write with the index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, profileKey(profile.ID), data, s.cfg.ProfileTTL)
	pipe.SAdd(ctx, profileIndexKey(), profileKey(profile.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.Profile, error) {
	keys, err := s.client.SMembers(ctx, profileIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.Profile{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.Profile, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Profile may have expired; the index entry is stale
		}
		var profile model.Profile
		if err := json.Unmarshal([]byte(val.(string)), &profile); err != nil {
			continue // Skip invalid data
		}
		profiles = append(profiles, &profile)
	}

	return profiles, nil
}
