package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case StatusResult:
		o.printStatusResult(v)
	case LeaderboardResult:
		o.printLeaderboardResult(v)
	case RankResult:
		o.printRankResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// StatusResult response type
type StatusResult struct {
	OnlinePlayers int `json:"online_players"`
	ActiveBattles int `json:"active_battles"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	ID         string `json:"id"`
	Name       string `json:"name"`
	Resources  int    `json:"resources"`
	ClickPower int    `json:"click_power"`
	AutoPower  int    `json:"auto_power"`
	Online     bool   `json:"online"`
}

// LeaderboardResult response type
type LeaderboardResult struct {
	Entries []LeaderboardEntry `json:"entries"`
	Total   int                `json:"total"`
}

// RankResult response type
type RankResult struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Resources int       `json:"resources"`
	Rank      int       `json:"rank"`
	Total     int       `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func (o *Output) printStatusResult(s StatusResult) {
	fmt.Printf("Online Players: %d\n", s.OnlinePlayers)
	fmt.Printf("Active Battles: %d\n", s.ActiveBattles)
}

func (o *Output) printLeaderboardResult(l LeaderboardResult) {
	fmt.Printf("Leaderboard (%d players):\n", l.Total)
	for _, e := range l.Entries {
		onlineStr := ""
		if e.Online {
			onlineStr = " [online]"
		}
		fmt.Printf("  %3d. %s (%s) - %d resources, %d/%d power%s\n",
			e.Rank, e.Name, e.ID, e.Resources, e.ClickPower, e.AutoPower, onlineStr)
	}
}

func (o *Output) printRankResult(r RankResult) {
	fmt.Printf("Player: %s (%s)\n", r.Name, r.ID)
	fmt.Printf("Resources: %d\n", r.Resources)
	fmt.Printf("Rank: %d of %d\n", r.Rank, r.Total)
}
