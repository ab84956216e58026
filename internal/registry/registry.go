package registry

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/tapduel/internal/dependencies/clock"
	"github.com/mcoot/tapduel/internal/dependencies/random"
	"github.com/mcoot/tapduel/internal/model"
	"github.com/mcoot/tapduel/internal/storage"
)

// Defaults applied to first-time players whose join payload omits a field
// and whose connection id has no mirrored profile.
const (
	DefaultResources  = 100
	DefaultClickPower = 1
	DefaultAutoPower  = 1
	DefaultSkin       = "default"
)

const suffixAlphabet = "0123456789"

// trailing 2-4 digit suffixes are stripped to find a name's base form
var nameSuffixPattern = regexp.MustCompile(`[0-9]{2,4}$`)

// Registry is the authoritative in-memory set of connected players.
// Profile changes are mirrored to storage best-effort; a failed write is
// logged and never surfaced to gameplay.
type Registry struct {
	mu      sync.RWMutex
	players map[model.PlayerID]*model.Player

	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new player registry
func New(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		players: make(map[model.PlayerID]*model.Player),
		storage: store,
		clock:   clk,
		random:  rnd,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Join registers a player for the given connection id, or re-registers an
// existing one by updating its mutable fields in place (the original join
// timestamp is preserved). Missing fields fall back to the mirrored profile
// for this id, then to defaults.
//
// Display names are kept unique among connected players: the requested name
// is stripped of any trailing 2-4 digit suffix, and if another connected
// player shares the stripped base, a fresh 3-digit suffix is appended to the
// base. A single suffix only - re-joins never compound suffixes.
func (r *Registry) Join(ctx context.Context, id model.PlayerID, update model.ProfileUpdate) *model.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	p, rejoin := r.players[id]
	if !rejoin {
		p = r.newPlayer(ctx, id, now)
		r.players[id] = p
	}

	if update.Name != nil {
		p.Name = r.resolveName(id, *update.Name)
	}
	if update.Resources != nil && *update.Resources >= 0 {
		p.Resources = *update.Resources
	}
	if update.ClickPower != nil && *update.ClickPower > 0 {
		p.ClickPower = *update.ClickPower
	}
	if update.AutoPower != nil && *update.AutoPower > 0 {
		p.AutoPower = *update.AutoPower
	}
	if update.Skin != nil {
		p.Skin = *update.Skin
	}
	p.UpdatedAt = now

	r.mirror(ctx, p)

	copied := *p
	return &copied
}

// newPlayer builds a fresh player record, seeded from the mirrored profile
// for this connection id when one exists
func (r *Registry) newPlayer(ctx context.Context, id model.PlayerID, now time.Time) *model.Player {
	p := &model.Player{
		ID:         id,
		Name:       string(id),
		Resources:  DefaultResources,
		ClickPower: DefaultClickPower,
		AutoPower:  DefaultAutoPower,
		Skin:       DefaultSkin,
		JoinedAt:   now,
		UpdatedAt:  now,
	}

	stored, err := r.storage.GetProfile(ctx, id)
	if err == nil {
		p.Name = stored.Name
		p.Resources = stored.Resources
		p.ClickPower = stored.ClickPower
		p.AutoPower = stored.AutoPower
		p.Skin = stored.Skin
	}
	return p
}

// resolveName applies the display-name collision policy. Caller holds the lock.
func (r *Registry) resolveName(id model.PlayerID, requested string) string {
	base := nameSuffixPattern.ReplaceAllString(requested, "")
	if base == "" {
		base = requested
	}

	for otherID, other := range r.players {
		if otherID == id {
			continue
		}
		otherBase := nameSuffixPattern.ReplaceAllString(other.Name, "")
		if otherBase == "" {
			otherBase = other.Name
		}
		if otherBase == base {
			return base + r.random.String(3, suffixAlphabet)
		}
	}
	return requested
}

// Update applies non-nil fields to an existing player. Unknown ids are a no-op.
func (r *Registry) Update(ctx context.Context, id model.PlayerID, update model.ProfileUpdate) *model.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return nil
	}

	if update.Name != nil {
		p.Name = r.resolveName(id, *update.Name)
	}
	if update.Resources != nil && *update.Resources >= 0 {
		p.Resources = *update.Resources
	}
	if update.ClickPower != nil && *update.ClickPower > 0 {
		p.ClickPower = *update.ClickPower
	}
	if update.AutoPower != nil && *update.AutoPower > 0 {
		p.AutoPower = *update.AutoPower
	}
	if update.Skin != nil {
		p.Skin = *update.Skin
	}
	p.UpdatedAt = r.clock.Now()

	r.mirror(ctx, p)

	copied := *p
	return &copied
}

// Remove deletes the player record and returns it. The mirrored profile is
// left in place so the leaderboard survives disconnects.
func (r *Registry) Remove(ctx context.Context, id model.PlayerID) (*model.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return nil, false
	}
	delete(r.players, id)

	p.UpdatedAt = r.clock.Now()
	r.mirror(ctx, p)
	return p, true
}

// Get returns the player for the given connection id
func (r *Registry) Get(id model.PlayerID) (*model.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return nil, false
	}
	copied := *p
	return &copied, true
}

// List returns all connected players ordered by name for stable broadcasts
func (r *Registry) List() []*model.Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]*model.Player, 0, len(r.players))
	for _, p := range r.players {
		copied := *p
		players = append(players, &copied)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].ID < players[j].ID
	})
	return players
}

// Count returns the number of connected players
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Balance returns the player's current resource balance
func (r *Registry) Balance(id model.PlayerID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return 0, model.ErrPlayerNotFound
	}
	return p.Resources, nil
}

// Spend deducts amount from the player's balance, rejecting overdrafts
func (r *Registry) Spend(ctx context.Context, id model.PlayerID, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	if p.Resources < amount {
		return model.ErrInsufficientResources
	}
	p.Resources -= amount
	p.UpdatedAt = r.clock.Now()
	r.mirror(ctx, p)
	return nil
}

// Credit adds amount to the player's balance
func (r *Registry) Credit(ctx context.Context, id model.PlayerID, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	p.Resources += amount
	p.UpdatedAt = r.clock.Now()
	r.mirror(ctx, p)
	return nil
}

// SetBattle flags the player as participating in the given battle
func (r *Registry) SetBattle(id model.PlayerID, battleID model.BattleID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return
	}
	bid := battleID
	p.InBattle = true
	p.BattleID = &bid
}

// ClearBattle clears the player's battle participation flag
func (r *Registry) ClearBattle(id model.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return
	}
	p.InBattle = false
	p.BattleID = nil
}

// InBattle reports whether the player currently participates in a battle
func (r *Registry) InBattle(id model.PlayerID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return ok && p.InBattle
}

// ListEntries builds the player-list broadcast payload
func (r *Registry) ListEntries() []model.PlayerListEntry {
	players := r.List()
	entries := make([]model.PlayerListEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, model.PlayerListEntry{
			ID:         p.ID,
			Name:       p.Name,
			Resources:  p.Resources,
			ClickPower: p.ClickPower,
			AutoPower:  p.AutoPower,
			Skin:       p.Skin,
			InBattle:   p.InBattle,
		})
	}
	return entries
}

// mirror persists the player's profile best-effort. Caller holds the lock.
func (r *Registry) mirror(ctx context.Context, p *model.Player) {
	if err := r.storage.SaveProfile(ctx, model.ProfileFromPlayer(p)); err != nil {
		r.logger.Warn("profile mirror write failed",
			slog.String("player_id", string(p.ID)),
			slog.String("error", err.Error()),
		)
	}
}
