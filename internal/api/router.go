package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tapduel/internal/api/handler"
	"github.com/mcoot/tapduel/internal/api/middleware"
	"github.com/mcoot/tapduel/internal/arena"
	"github.com/mcoot/tapduel/internal/registry"
	"github.com/mcoot/tapduel/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger    *slog.Logger
	Registry  *registry.Registry
	Manager   *arena.Manager
	Storage   storage.Storage
	WSHandler http.Handler
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	statusHandler := handler.NewStatusHandler(cfg.Registry, cfg.Manager, cfg.Storage)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// The websocket route is mounted on the bare router: the logging wrapper
	// would hide the Hijacker the upgrade needs
	if cfg.WSHandler != nil {
		r.Handle("/ws", cfg.WSHandler)
	}

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/status", statusHandler.Status).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", statusHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}/rank", statusHandler.Rank).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
