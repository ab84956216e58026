package handler

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/mcoot/tapduel/internal/api/request"
	"github.com/mcoot/tapduel/internal/api/response"
	"github.com/mcoot/tapduel/internal/arena"
	"github.com/mcoot/tapduel/internal/model"
	"github.com/mcoot/tapduel/internal/registry"
	"github.com/mcoot/tapduel/internal/storage"
)

// StatusHandler serves the read-only status surface: live counters, the
// resource leaderboard and per-player rank
type StatusHandler struct {
	registry *registry.Registry
	manager  *arena.Manager
	store    storage.Storage
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(reg *registry.Registry, manager *arena.Manager, store storage.Storage) *StatusHandler {
	return &StatusHandler{
		registry: reg,
		manager:  manager,
		store:    store,
	}
}

// Status handles GET /api/v1/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.StatusResponse{
		OnlinePlayers: h.registry.Count(),
		ActiveBattles: h.manager.Count(),
	})
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *StatusHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := request.LeaderboardLimit(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	profiles, err := h.store.ListProfiles(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	sortByResources(profiles)

	total := len(profiles)
	if len(profiles) > limit {
		profiles = profiles[:limit]
	}

	entries := make([]response.LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		_, online := h.registry.Get(p.ID)
		entries = append(entries, response.LeaderboardEntryFromProfile(p, i+1, online))
	}

	response.JSON(w, http.StatusOK, response.LeaderboardResponse{
		Entries: entries,
		Total:   total,
	})
}

// Rank handles GET /api/v1/players/{id}/rank
func (h *StatusHandler) Rank(w http.ResponseWriter, r *http.Request) {
	playerID := model.PlayerID(mux.Vars(r)["id"])

	profiles, err := h.store.ListProfiles(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	sortByResources(profiles)

	for i, p := range profiles {
		if p.ID == playerID {
			response.JSON(w, http.StatusOK, response.RankResponse{
				ID:        string(p.ID),
				Name:      p.Name,
				Resources: p.Resources,
				Rank:      i + 1,
				Total:     len(profiles),
				UpdatedAt: p.UpdatedAt,
			})
			return
		}
	}

	WriteError(w, model.ErrProfileNotFound)
}

// sortByResources orders profiles highest balance first, name as tie-break so
// rank assignment is stable
func sortByResources(profiles []*model.Profile) {
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Resources != profiles[j].Resources {
			return profiles[i].Resources > profiles[j].Resources
		}
		return profiles[i].Name < profiles[j].Name
	})
}
