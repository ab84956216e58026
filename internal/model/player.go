package model

import "time"

// PlayerID uniquely identifies a player across the system.
// It is the opaque connection id assigned when the player's socket connects.
type PlayerID string

// Player represents a connected player
type Player struct {
	ID         PlayerID
	Name       string // display name, unique among connected players
	Resources  int    // spendable balance, never negative
	ClickPower int
	AutoPower  int
	Skin       string

	// Battle participation. InBattle is true iff BattleID is non-nil.
	InBattle bool
	BattleID *BattleID

	JoinedAt  time.Time
	UpdatedAt time.Time
}

// ProfileUpdate carries the mutable player fields for join/update events.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name       *string
	Resources  *int
	ClickPower *int
	AutoPower  *int
	Skin       *string
}

// Profile is the persisted mirror of a player's gameplay fields.
// It is keyed on the player's connection id; no battle state is persisted.
type Profile struct {
	ID         PlayerID  `json:"id"`
	Name       string    `json:"name"`
	Resources  int       `json:"resources"`
	ClickPower int       `json:"click_power"`
	AutoPower  int       `json:"auto_power"`
	Skin       string    `json:"skin"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ProfileFromPlayer snapshots the persistable subset of a player
func ProfileFromPlayer(p *Player) *Profile {
	return &Profile{
		ID:         p.ID,
		Name:       p.Name,
		Resources:  p.Resources,
		ClickPower: p.ClickPower,
		AutoPower:  p.AutoPower,
		Skin:       p.Skin,
		UpdatedAt:  p.UpdatedAt,
	}
}
