package model

import "time"

// BattleID uniquely identifies a battle session
type BattleID string

// BattleStatus represents the lifecycle state of a battle.
// Finished and cancelled are terminal; no transition leaves them.
type BattleStatus string

const (
	BattleStatusActive    BattleStatus = "active"
	BattleStatusFinished  BattleStatus = "finished"
	BattleStatusCancelled BattleStatus = "cancelled"
)

// MaxHealth is the starting health for every battle participant
const MaxHealth = 100

// SnapshotActionLimit caps how many recent actions a snapshot exposes to clients.
// The full log is retained server-side.
const SnapshotActionLimit = 10

// ActionType identifies a battle log entry
type ActionType string

const (
	ActionAttack  ActionType = "attack"
	ActionSpecial ActionType = "special"
	ActionTimeout ActionType = "timeout"
	ActionCancel  ActionType = "cancel"
)

// BattleAction is one entry in a battle's append-only action log
type BattleAction struct {
	Type      ActionType `json:"type"`
	Attacker  string     `json:"attacker,omitempty"` // display name
	Defender  string     `json:"defender,omitempty"` // display name
	Damage    int        `json:"damage"`
	Cost      int        `json:"cost"`
	Turn      int        `json:"turn"`
	BattleEnd bool       `json:"battle_end,omitempty"`
	Winner    string     `json:"winner,omitempty"` // display name, set on battle-ending actions
	Reason    string     `json:"reason,omitempty"` // set on cancel actions
	Timestamp time.Time  `json:"timestamp"`
}

// Participant is one of the two players bound to a battle for its lifetime.
// The battle owns this snapshot of identity and click power; resource
// mutations go back through the registry instead.
type Participant struct {
	ID         PlayerID
	Name       string
	ClickPower int
	Health     int // 0..MaxHealth
}

// Battle is one isolated two-player turn-based duel session
type Battle struct {
	ID            BattleID
	Participants  [2]Participant // index 0 is the challenger
	Turn          int
	CurrentPlayer PlayerID // always one of the two participant ids while active
	Actions       []BattleAction
	Status        BattleStatus
	Winner        PlayerID // set only when finished
	StartedAt     time.Time
	LastActionAt  time.Time

	// TimerSeq increments every time the turn timer is rearmed. A pending
	// timer callback carrying a stale sequence number must be ignored.
	TimerSeq uint64
}

// IsParticipant reports whether the player is one of the two participants
func (b *Battle) IsParticipant(id PlayerID) bool {
	return b.Participants[0].ID == id || b.Participants[1].ID == id
}

// ParticipantIndex returns the participant index for the player, or -1
func (b *Battle) ParticipantIndex(id PlayerID) int {
	for i := range b.Participants {
		if b.Participants[i].ID == id {
			return i
		}
	}
	return -1
}

// Opponent returns the other participant's id
func (b *Battle) Opponent(id PlayerID) PlayerID {
	if b.Participants[0].ID == id {
		return b.Participants[1].ID
	}
	return b.Participants[0].ID
}

// Terminal reports whether the battle has reached a terminal status
func (b *Battle) Terminal() bool {
	return b.Status != BattleStatusActive
}

// ParticipantView is the client-facing view of one participant
type ParticipantView struct {
	ID        PlayerID `json:"id"`
	Name      string   `json:"name"`
	Health    int      `json:"health"`
	MaxHealth int      `json:"max_health"`
}

// BattleSnapshot is the read-only client view of a battle
type BattleSnapshot struct {
	ID            BattleID        `json:"id"`
	Participants  [2]ParticipantView `json:"participants"`
	CurrentPlayer PlayerID        `json:"current_player"`
	Turn          int             `json:"turn"`
	Status        BattleStatus    `json:"status"`
	Winner        PlayerID        `json:"winner,omitempty"`
	Actions       []BattleAction  `json:"actions"`
}

// Snapshot produces the client view of the battle, with the action log
// truncated to the most recent SnapshotActionLimit entries
func (b *Battle) Snapshot() BattleSnapshot {
	snap := BattleSnapshot{
		ID:            b.ID,
		CurrentPlayer: b.CurrentPlayer,
		Turn:          b.Turn,
		Status:        b.Status,
		Winner:        b.Winner,
	}
	for i, p := range b.Participants {
		snap.Participants[i] = ParticipantView{
			ID:        p.ID,
			Name:      p.Name,
			Health:    p.Health,
			MaxHealth: MaxHealth,
		}
	}
	actions := b.Actions
	if len(actions) > SnapshotActionLimit {
		actions = actions[len(actions)-SnapshotActionLimit:]
	}
	snap.Actions = make([]BattleAction, len(actions))
	copy(snap.Actions, actions)
	return snap
}
