package request

import (
	"net/http"
	"strconv"

	"github.com/mcoot/tapduel/internal/api/apierr"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// LeaderboardLimit parses the optional limit query parameter, clamping to the
// allowed range
func LeaderboardLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLeaderboardLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, apierr.NewInvalidRequestError("limit must be a positive integer")
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	return limit, nil
}
