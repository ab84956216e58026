package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/tapduel/internal/arena"
	"github.com/mcoot/tapduel/internal/battle"
	"github.com/mcoot/tapduel/internal/dependencies/clock"
	"github.com/mcoot/tapduel/internal/dependencies/random"
	"github.com/mcoot/tapduel/internal/registry"
	"github.com/mcoot/tapduel/internal/storage"
	"github.com/mcoot/tapduel/internal/storage/memory"
	redisstorage "github.com/mcoot/tapduel/internal/storage/redis"
	"github.com/mcoot/tapduel/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Core components
	Registry *registry.Registry
	Engine   *battle.Engine
	Manager  *arena.Manager

	// Transport
	Hub       *ws.Hub
	Router    *ws.Router
	WSHandler *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg.Logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	reg := registry.New(store, clk, rnd, logger)
	engine := battle.NewEngine(clk, rnd, reg, logger)

	hub := ws.NewHub(logger)
	router := ws.NewRouter(hub, reg, clk, logger)

	// The manager broadcasts through the router, which in turn dispatches
	// inbound events to the manager
	manager := arena.NewManager(engine, reg, clk, router, logger)
	router.SetManager(manager)

	wsHandler := ws.NewHandler(hub, router, rnd, logger)

	return &App{
		Storage:   store,
		Clock:     clk,
		Random:    rnd,
		Registry:  reg,
		Engine:    engine,
		Manager:   manager,
		Hub:       hub,
		Router:    router,
		WSHandler: wsHandler,
	}
}
