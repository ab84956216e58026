package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get("/api/v1/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show online player and active battle counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result StatusResult

			if err := client.Get("/api/v1/status", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the resource leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LeaderboardResult

			path := "/api/v1/leaderboard"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of entries to show")

	return cmd
}

func newRankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank <player-id>",
		Short: "Show a player's leaderboard rank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RankResult

			path := fmt.Sprintf("/api/v1/players/%s/rank", url.PathEscape(args[0]))
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
