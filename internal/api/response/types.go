package response

import (
	"time"

	"github.com/mcoot/tapduel/internal/model"
)

// StatusResponse reports the live service counters
type StatusResponse struct {
	OnlinePlayers int `json:"online_players"`
	ActiveBattles int `json:"active_battles"`
}

// LeaderboardEntry is one row in the resource leaderboard. Click and auto
// power are display data: the client's income loop runs on them, the server
// only mirrors them.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Resources  int    `json:"resources"`
	ClickPower int    `json:"click_power"`
	AutoPower  int    `json:"auto_power"`
	Online     bool   `json:"online"`
}

// LeaderboardResponse is the response for the leaderboard endpoint
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
	Total   int                `json:"total"`
}

// RankResponse is the response for a single player's rank lookup
type RankResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Resources int       `json:"resources"`
	Rank      int       `json:"rank"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeaderboardEntryFromProfile converts a persisted profile to a leaderboard row
func LeaderboardEntryFromProfile(p *model.Profile, rank int, online bool) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:       rank,
		ID:         string(p.ID),
		Name:       p.Name,
		Resources:  p.Resources,
		ClickPower: p.ClickPower,
		AutoPower:  p.AutoPower,
		Online:     online,
	}
}
