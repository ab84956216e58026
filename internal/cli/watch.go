package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool
	var name string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the live event stream",
		Long: `Connect to the server's websocket endpoint and stream events in real-time.

Events include:
  - player_list_changed: Connected player list changed
  - challenge_received: A challenge was issued
  - battle_started: A battle began
  - battle_updated: A battle turn resolved
  - battle_cancelled: A battle was cancelled
  - chat_message: A chat line was sent

With --name the connection joins as a spectator player, which makes it
visible in the player list and eligible to receive challenges.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchEvents(name, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringVar(&name, "name", "", "Join with this display name before watching")

	return cmd
}

// streamedEvent mirrors the server's outbound event envelope
type streamedEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func watchEvents(name string, jsonOutput bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	dialCtx, dialCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, client.WebsocketURL(), nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if name != "" {
		join, _ := json.Marshal(map[string]string{"type": "join", "name": name})
		if err := conn.Write(ctx, websocket.MessageText, join); err != nil {
			return fmt.Errorf("join failed: %w", err)
		}
	}

	if !jsonOutput {
		fmt.Println("Connected")
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Context cancellation is expected on Ctrl+C
			if ctx.Err() != nil {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		printEvent(data, jsonOutput)
	}
}

func printEvent(data []byte, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}

	var ev streamedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		fmt.Printf("[?] %s\n", string(data))
		return
	}

	ts := ev.Timestamp.Local().Format("15:04:05")
	if len(ev.Payload) > 0 {
		fmt.Printf("[%s] %s %s\n", ts, ev.Type, string(ev.Payload))
	} else {
		fmt.Printf("[%s] %s\n", ts, ev.Type)
	}
}
