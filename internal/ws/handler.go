package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/mcoot/tapduel/internal/dependencies/random"
	"github.com/mcoot/tapduel/internal/model"
)

const (
	connectionIDLength   = 16
	connectionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Handler upgrades HTTP requests to websocket connections and runs the
// per-connection read loop
type Handler struct {
	hub    *Hub
	router *Router
	random random.Random
	logger *slog.Logger
}

func NewHandler(hub *Hub, router *Router, rand random.Random, logger *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		router: router,
		random: rand,
		logger: logger.With(slog.String("component", "ws_handler")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	playerID := model.PlayerID(h.random.String(connectionIDLength, connectionIDAlphabet))
	client := NewClient(playerID, conn)
	h.hub.Register(client)

	// The write pump owns the connection for outbound traffic; it exits when
	// the hub closes the send channel on unregister
	writeCtx, writeCancel := context.WithCancel(context.Background())
	defer writeCancel()
	go client.WritePump(writeCtx)

	h.readLoop(r.Context(), conn, playerID)

	// Teardown order matters: battle cancellation and registry removal
	// broadcast to the surviving connections before this one is dropped
	h.router.HandleDisconnect(context.Background(), playerID)
	h.hub.Unregister(client)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, playerID model.PlayerID) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				h.logger.Debug("websocket read ended",
					slog.String("player_id", string(playerID)),
					slog.String("error", err.Error()))
			}
			return
		}
		h.router.HandleMessage(ctx, playerID, data)
	}
}
