package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/tapduel/internal/arena"
	"github.com/mcoot/tapduel/internal/dependencies/clock"
	"github.com/mcoot/tapduel/internal/model"
	"github.com/mcoot/tapduel/internal/registry"
)

// ClientMessage is the inbound wire format. Which fields are meaningful
// depends on Type; profile fields use pointers so a join/update can carry a
// partial profile.
type ClientMessage struct {
	Type string `json:"type"`

	// join / update
	Name       *string `json:"name,omitempty"`
	Resources  *int    `json:"resources,omitempty"`
	ClickPower *int    `json:"click_power,omitempty"`
	AutoPower  *int    `json:"auto_power,omitempty"`
	Skin       *string `json:"skin,omitempty"`

	// challenge / accept / decline
	TargetID     model.PlayerID `json:"target_id,omitempty"`
	ChallengerID model.PlayerID `json:"challenger_id,omitempty"`

	// attack / cancel
	BattleID model.BattleID `json:"battle_id,omitempty"`
	Special  bool           `json:"special,omitempty"`
	Reason   string         `json:"reason,omitempty"`

	// chat
	Text string `json:"text,omitempty"`
}

// Router dispatches inbound client messages to the registry and battle
// manager and fans resulting events back out through the hub. It is the
// arena.Broadcaster for the battle manager.
type Router struct {
	hub      *Hub
	registry *registry.Registry
	manager  *arena.Manager
	clock    clock.Clock
	logger   *slog.Logger
}

func NewRouter(hub *Hub, reg *registry.Registry, clk clock.Clock, logger *slog.Logger) *Router {
	return &Router{
		hub:      hub,
		registry: reg,
		clock:    clk,
		logger:   logger.With(slog.String("component", "router")),
	}
}

// SetManager wires the battle manager after construction; the manager needs
// the router as its broadcaster, so the two are built in sequence.
func (r *Router) SetManager(m *arena.Manager) {
	r.manager = m
}

// HandleMessage dispatches one raw inbound frame from the given connection
func (r *Router) HandleMessage(ctx context.Context, playerID model.PlayerID, data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.sendError(playerID, CodeInvalidEvent, "Malformed message")
		return
	}

	r.logger.Debug("inbound event",
		slog.String("player_id", string(playerID)),
		slog.String("type", msg.Type))

	switch msg.Type {
	case "join":
		r.handleJoin(ctx, playerID, msg)
	case "update":
		r.handleUpdate(ctx, playerID, msg)
	case "challenge":
		r.handleChallenge(ctx, playerID, msg)
	case "accept":
		r.handleAccept(ctx, playerID, msg)
	case "decline":
		r.handleDecline(ctx, playerID, msg)
	case "attack":
		r.handleAttack(ctx, playerID, msg)
	case "cancel":
		r.handleCancel(ctx, playerID, msg)
	case "chat":
		r.handleChat(playerID, msg)
	default:
		r.sendError(playerID, CodeInvalidEvent, "Unknown event type")
	}
}

// HandleDisconnect runs the teardown chain for a dropped connection:
// force-cancel any live battle, remove the player, tell everyone else
func (r *Router) HandleDisconnect(ctx context.Context, playerID model.PlayerID) {
	r.manager.OnDisconnect(ctx, playerID)
	if _, ok := r.registry.Remove(ctx, playerID); ok {
		r.PlayerListChanged()
	}
}

func (r *Router) handleJoin(ctx context.Context, playerID model.PlayerID, msg ClientMessage) {
	if msg.Name == nil || *msg.Name == "" {
		r.sendError(playerID, CodeInvalidEvent, "Join requires a name")
		return
	}
	p := r.registry.Join(ctx, playerID, model.ProfileUpdate{
		Name:       msg.Name,
		Resources:  msg.Resources,
		ClickPower: msg.ClickPower,
		AutoPower:  msg.AutoPower,
		Skin:       msg.Skin,
	})
	r.sendTo(playerID, model.EventJoined, model.JoinedPayload{ID: p.ID, Name: p.Name})
	r.PlayerListChanged()
}

func (r *Router) handleUpdate(ctx context.Context, playerID model.PlayerID, msg ClientMessage) {
	p := r.registry.Update(ctx, playerID, model.ProfileUpdate{
		Name:       msg.Name,
		Resources:  msg.Resources,
		ClickPower: msg.ClickPower,
		AutoPower:  msg.AutoPower,
		Skin:       msg.Skin,
	})
	if p == nil {
		r.sendError(playerID, CodePlayerNotFound, "Join before updating")
		return
	}
	r.PlayerListChanged()
}

func (r *Router) handleChallenge(ctx context.Context, playerID model.PlayerID, msg ClientMessage) {
	if msg.TargetID == "" {
		r.sendError(playerID, CodeInvalidEvent, "Challenge requires a target")
		return
	}
	if err := r.manager.Challenge(ctx, playerID, msg.TargetID); err != nil {
		code, message := toEventError(err)
		r.sendError(playerID, code, message)
	}
}

func (r *Router) handleAccept(ctx context.Context, playerID model.PlayerID, msg ClientMessage) {
	if msg.ChallengerID == "" {
		r.sendError(playerID, CodeInvalidEvent, "Accept requires a challenger")
		return
	}
	if _, err := r.manager.Accept(ctx, msg.ChallengerID, playerID); err != nil {
		code, message := toEventError(err)
		r.sendError(playerID, code, message)
	}
}

func (r *Router) handleDecline(ctx context.Context, playerID model.PlayerID, msg ClientMessage) {
	if msg.ChallengerID == "" {
		r.sendError(playerID, CodeInvalidEvent, "Decline requires a challenger")
		return
	}
	if err := r.manager.Decline(ctx, msg.ChallengerID, playerID, msg.Reason); err != nil {
		code, message := toEventError(err)
		r.sendError(playerID, code, message)
	}
}

func (r *Router) handleAttack(ctx context.Context, playerID model.PlayerID, msg ClientMessage) {
	if msg.BattleID == "" {
		r.sendError(playerID, CodeInvalidEvent, "Attack requires a battle id")
		return
	}
	if _, err := r.manager.Attack(ctx, playerID, msg.BattleID, msg.Special); err != nil {
		code, message := toEventError(err)
		r.sendTo(playerID, model.EventAttackRejected, model.AttackRejectedPayload{
			BattleID: msg.BattleID,
			Code:     code,
			Message:  message,
		})
	}
}

func (r *Router) handleCancel(ctx context.Context, playerID model.PlayerID, msg ClientMessage) {
	if msg.BattleID == "" {
		r.sendError(playerID, CodeInvalidEvent, "Cancel requires a battle id")
		return
	}
	if err := r.manager.Cancel(ctx, playerID, msg.BattleID, msg.Reason); err != nil {
		code, message := toEventError(err)
		r.sendError(playerID, code, message)
	}
}

func (r *Router) handleChat(playerID model.PlayerID, msg ClientMessage) {
	if msg.Text == "" {
		return
	}
	p, ok := r.registry.Get(playerID)
	if !ok {
		r.sendError(playerID, CodePlayerNotFound, "Join before chatting")
		return
	}
	r.broadcastEvent(model.EventChatMessage, model.ChatMessagePayload{
		SenderID:   p.ID,
		SenderName: p.Name,
		Text:       msg.Text,
	})
}

// arena.Broadcaster

func (r *Router) ChallengeReceived(target model.PlayerID, payload model.ChallengeReceivedPayload) {
	r.sendTo(target, model.EventChallengeReceived, payload)
}

func (r *Router) BattleStarted(participants []model.PlayerID, snapshot model.BattleSnapshot) {
	r.sendEach(participants, model.EventBattleStarted, model.BattleStartedPayload{Battle: snapshot})
}

func (r *Router) BattleUpdated(participants []model.PlayerID, snapshot model.BattleSnapshot) {
	r.sendEach(participants, model.EventBattleUpdated, model.BattleUpdatedPayload{Battle: snapshot})
}

func (r *Router) BattleDeclined(challenger model.PlayerID, payload model.BattleDeclinedPayload) {
	r.sendTo(challenger, model.EventBattleDeclined, payload)
}

func (r *Router) BattleCancelled(target model.PlayerID, payload model.BattleCancelledPayload) {
	r.sendTo(target, model.EventBattleCancelled, payload)
}

func (r *Router) PlayerListChanged() {
	r.broadcastEvent(model.EventPlayerListChanged, model.PlayerListChangedPayload{
		Players: r.registry.ListEntries(),
	})
}

func (r *Router) marshalEvent(eventType model.EventType, payload any) ([]byte, bool) {
	data, err := json.Marshal(model.Event{
		Type:      eventType,
		Timestamp: r.clock.Now(),
		Payload:   payload,
	})
	if err != nil {
		r.logger.Error("failed to marshal event",
			slog.String("type", string(eventType)),
			slog.String("error", err.Error()))
		return nil, false
	}
	return data, true
}

func (r *Router) sendTo(playerID model.PlayerID, eventType model.EventType, payload any) {
	if data, ok := r.marshalEvent(eventType, payload); ok {
		r.hub.Send(playerID, data)
	}
}

func (r *Router) sendEach(playerIDs []model.PlayerID, eventType model.EventType, payload any) {
	data, ok := r.marshalEvent(eventType, payload)
	if !ok {
		return
	}
	for _, id := range playerIDs {
		r.hub.Send(id, data)
	}
}

func (r *Router) broadcastEvent(eventType model.EventType, payload any) {
	if data, ok := r.marshalEvent(eventType, payload); ok {
		r.hub.Broadcast(data)
	}
}

func (r *Router) sendError(playerID model.PlayerID, code, message string) {
	r.sendTo(playerID, model.EventError, model.ErrorPayload{Code: code, Message: message})
}
