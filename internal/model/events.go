package model

import "time"

// EventType identifies the type of outbound event
type EventType string

const (
	// Battle events (participants only)
	EventChallengeReceived EventType = "challenge_received"
	EventBattleStarted     EventType = "battle_started"
	EventBattleUpdated     EventType = "battle_updated"
	EventBattleDeclined    EventType = "battle_declined"
	EventBattleCancelled   EventType = "battle_cancelled"
	EventAttackRejected    EventType = "attack_rejected"

	// Broadcast events (all connections)
	EventPlayerListChanged EventType = "player_list_changed"
	EventChatMessage       EventType = "chat_message"

	// Sent to a single connection when its event was rejected
	EventError EventType = "error"

	// Sent to a connection after a successful join
	EventJoined EventType = "joined"
)

// Event is the envelope for every server-to-client message
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// ChallengeReceivedPayload notifies the target of an incoming challenge
type ChallengeReceivedPayload struct {
	ChallengerID   PlayerID `json:"challenger_id"`
	ChallengerName string   `json:"challenger_name"`
}

// BattleStartedPayload carries the initial snapshot to both participants
type BattleStartedPayload struct {
	Battle BattleSnapshot `json:"battle"`
}

// BattleUpdatedPayload carries the snapshot after every turn, timeout or cancel
type BattleUpdatedPayload struct {
	Battle BattleSnapshot `json:"battle"`
}

// BattleDeclinedPayload notifies the challenger their challenge was declined
type BattleDeclinedPayload struct {
	TargetID   PlayerID `json:"target_id"`
	TargetName string   `json:"target_name"`
	Reason     string   `json:"reason,omitempty"`
}

// BattleCancelledPayload notifies a participant their battle was cancelled
type BattleCancelledPayload struct {
	BattleID BattleID `json:"battle_id"`
	Reason   string   `json:"reason"`
}

// AttackRejectedPayload tells the acting connection why an attack was refused
type AttackRejectedPayload struct {
	BattleID BattleID `json:"battle_id"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// PlayerListEntry is one row in a player-list broadcast
type PlayerListEntry struct {
	ID         PlayerID `json:"id"`
	Name       string   `json:"name"`
	Resources  int      `json:"resources"`
	ClickPower int      `json:"click_power"`
	AutoPower  int      `json:"auto_power"`
	Skin       string   `json:"skin"`
	InBattle   bool     `json:"in_battle"`
}

// PlayerListChangedPayload carries the full connected-player list
type PlayerListChangedPayload struct {
	Players []PlayerListEntry `json:"players"`
}

// ChatMessagePayload relays a chat line to all connections
type ChatMessagePayload struct {
	SenderID   PlayerID `json:"sender_id"`
	SenderName string   `json:"sender_name"`
	Text       string   `json:"text"`
}

// ErrorPayload tells a connection why its event was rejected
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JoinedPayload confirms registration, including the final display name
// after collision resolution
type JoinedPayload struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}
