package ws

import (
	"context"
	"time"

	"github.com/coder/websocket"

	"github.com/mcoot/tapduel/internal/model"
)

const (
	clientSendBuffer = 32
	writeTimeout     = 5 * time.Second
)

// Client is one websocket connection tracked by the hub. playerID is assigned
// at accept time, before the player has joined with a name.
type Client struct {
	playerID    model.PlayerID
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
}

func NewClient(playerID model.PlayerID, conn *websocket.Conn) *Client {
	return &Client{
		playerID:    playerID,
		conn:        conn,
		send:        make(chan []byte, clientSendBuffer),
		connectedAt: time.Now(),
	}
}

func (c *Client) PlayerID() model.PlayerID {
	return c.playerID
}

// WritePump drains the send channel onto the connection. It returns when the
// hub closes the channel or a write fails.
func (c *Client) WritePump(ctx context.Context) {
	for message := range c.send {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.conn.Write(writeCtx, websocket.MessageText, message)
		cancel()
		if err != nil {
			return
		}
	}
}
