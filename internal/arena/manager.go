package arena

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/tapduel/internal/battle"
	"github.com/mcoot/tapduel/internal/dependencies/clock"
	"github.com/mcoot/tapduel/internal/model"
	"github.com/mcoot/tapduel/internal/registry"
)

// Broadcaster fans battle events out to the relevant connections. The event
// router implements it; the manager never talks to sockets directly.
type Broadcaster interface {
	ChallengeReceived(target model.PlayerID, payload model.ChallengeReceivedPayload)
	BattleStarted(participants []model.PlayerID, snapshot model.BattleSnapshot)
	BattleUpdated(participants []model.PlayerID, snapshot model.BattleSnapshot)
	BattleDeclined(challenger model.PlayerID, payload model.BattleDeclinedPayload)
	BattleCancelled(target model.PlayerID, payload model.BattleCancelledPayload)
	PlayerListChanged()
}

// Manager owns the collection of live battles. A single mutex serializes
// every battle mutation, including turn-timer callbacks, so a timer firing
// concurrently with a manual attack can never double-apply a turn.
type Manager struct {
	mu      sync.Mutex
	battles map[model.BattleID]*model.Battle
	timers  map[model.BattleID]clock.Timer

	engine      *battle.Engine
	registry    *registry.Registry
	clock       clock.Clock
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewManager creates a battle manager
func NewManager(engine *battle.Engine, reg *registry.Registry, clk clock.Clock, broadcaster Broadcaster, logger *slog.Logger) *Manager {
	return &Manager{
		battles:     make(map[model.BattleID]*model.Battle),
		timers:      make(map[model.BattleID]clock.Timer),
		engine:      engine,
		registry:    reg,
		clock:       clk,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "arena")),
	}
}

// Challenge validates a challenge and notifies the target. No battle state
// is created until the target accepts.
func (m *Manager) Challenge(ctx context.Context, challengerID, targetID model.PlayerID) error {
	challenger, err := m.validatePairing(challengerID, targetID)
	if err != nil {
		return err
	}

	m.broadcaster.ChallengeReceived(targetID, model.ChallengeReceivedPayload{
		ChallengerID:   challenger.ID,
		ChallengerName: challenger.Name,
	})
	return nil
}

// Accept re-validates the challenge conditions (state may have changed since
// the challenge was issued) and creates the battle on success.
func (m *Manager) Accept(ctx context.Context, challengerID, acceptorID model.PlayerID) (*model.BattleSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	challenger, err := m.validatePairing(challengerID, acceptorID)
	if err != nil {
		return nil, err
	}
	acceptor, _ := m.registry.Get(acceptorID)

	b := m.engine.NewBattle(challenger, acceptor)
	m.battles[b.ID] = b
	m.registry.SetBattle(challengerID, b.ID)
	m.registry.SetBattle(acceptorID, b.ID)
	m.armTimerLocked(b)

	m.logger.Info("battle started",
		slog.String("battle_id", string(b.ID)),
		slog.String("challenger", string(challengerID)),
		slog.String("acceptor", string(acceptorID)),
	)

	snap := b.Snapshot()
	m.broadcaster.BattleStarted(participants(b), snap)
	m.broadcaster.PlayerListChanged()
	return &snap, nil
}

// Decline notifies the challenger their challenge was declined. Pure
// notification, no state change.
func (m *Manager) Decline(ctx context.Context, challengerID, targetID model.PlayerID, reason string) error {
	target, ok := m.registry.Get(targetID)
	if !ok {
		return model.ErrPlayerNotFound
	}
	if _, ok := m.registry.Get(challengerID); !ok {
		return model.ErrPlayerNotFound
	}

	m.broadcaster.BattleDeclined(challengerID, model.BattleDeclinedPayload{
		TargetID:   target.ID,
		TargetName: target.Name,
		Reason:     reason,
	})
	return nil
}

// Attack routes an attack to the named battle and resolves one turn.
// Failure reasons are distinguishable: unknown battle, non-participant,
// terminal battle, wrong turn and insufficient resources each map to their
// own sentinel error.
func (m *Manager) Attack(ctx context.Context, playerID model.PlayerID, battleID model.BattleID, special bool) (*model.BattleSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.battles[battleID]
	if !ok {
		return nil, model.ErrBattleNotFound
	}
	if !b.IsParticipant(playerID) {
		return nil, model.ErrNotParticipant
	}

	if _, err := m.engine.PerformAttack(ctx, b, playerID, special); err != nil {
		return nil, err
	}

	if b.Terminal() {
		m.releaseLocked(b)
	} else {
		m.armTimerLocked(b)
	}

	snap := b.Snapshot()
	m.broadcaster.BattleUpdated(participants(b), snap)
	// Resources changed for the attacker (and the winner on a finish)
	m.broadcaster.PlayerListChanged()
	return &snap, nil
}

// Cancel terminates a battle at a participant's request and frees both
// participants
func (m *Manager) Cancel(ctx context.Context, playerID model.PlayerID, battleID model.BattleID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.battles[battleID]
	if !ok {
		return model.ErrBattleNotFound
	}
	if !b.IsParticipant(playerID) {
		return model.ErrNotParticipant
	}
	if b.Terminal() {
		return model.ErrBattleNotActive
	}

	m.engine.Cancel(b, reason)
	m.releaseLocked(b)

	m.broadcaster.BattleUpdated(participants(b), b.Snapshot())
	m.broadcaster.PlayerListChanged()
	return nil
}

// OnDisconnect force-cancels any battle the player participates in and
// notifies the opponent. Runs before the player is removed from the registry.
func (m *Manager) OnDisconnect(ctx context.Context, playerID model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.battles {
		if !b.IsParticipant(playerID) {
			continue
		}

		m.engine.Cancel(b, "opponent disconnected")
		opponent := b.Opponent(playerID)
		m.releaseLocked(b)

		m.broadcaster.BattleCancelled(opponent, model.BattleCancelledPayload{
			BattleID: b.ID,
			Reason:   "opponent disconnected",
		})

		m.logger.Info("battle cancelled by disconnect",
			slog.String("battle_id", string(b.ID)),
			slog.String("player", string(playerID)),
		)
	}
}

// Count returns the number of live battles
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.battles)
}

// Snapshot returns the client view of a live battle
func (m *Manager) Snapshot(battleID model.BattleID) (*model.BattleSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.battles[battleID]
	if !ok {
		return nil, model.ErrBattleNotFound
	}
	snap := b.Snapshot()
	return &snap, nil
}

// validatePairing checks the three challenge conditions: distinct players,
// neither already in a battle, challenger can afford an attack. Returns the
// challenger record on success.
func (m *Manager) validatePairing(challengerID, targetID model.PlayerID) (*model.Player, error) {
	if challengerID == targetID {
		return nil, model.ErrSelfChallenge
	}

	challenger, ok := m.registry.Get(challengerID)
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	if _, ok := m.registry.Get(targetID); !ok {
		return nil, model.ErrPlayerNotFound
	}

	if m.registry.InBattle(challengerID) || m.registry.InBattle(targetID) {
		return nil, model.ErrAlreadyInBattle
	}
	if challenger.Resources < battle.NormalAttackCost {
		return nil, model.ErrInsufficientResources
	}
	return challenger, nil
}

// onTurnTimeout is the turn-timer callback. It re-enters the manager lock
// and validates both the timer sequence and battle status, so a fire racing
// a manual attack or a cancel is a no-op.
func (m *Manager) onTurnTimeout(battleID model.BattleID, seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.battles[battleID]
	if !ok || b.TimerSeq != seq || b.Terminal() {
		return
	}

	_, finished := m.engine.ApplyTimeout(context.Background(), b)

	if finished {
		m.releaseLocked(b)
		m.broadcaster.BattleUpdated(participants(b), b.Snapshot())
		// The winner's reward changed the player list
		m.broadcaster.PlayerListChanged()
		return
	}

	m.armTimerLocked(b)
	m.broadcaster.BattleUpdated(participants(b), b.Snapshot())
}

// armTimerLocked (re)arms the single-shot turn timer, stopping any pending
// one first so a battle never has two timers in flight. Caller holds the lock.
func (m *Manager) armTimerLocked(b *model.Battle) {
	if t, ok := m.timers[b.ID]; ok {
		t.Stop()
	}
	b.TimerSeq++
	seq := b.TimerSeq
	m.timers[b.ID] = m.clock.AfterFunc(battle.TurnTimeout, func() {
		m.onTurnTimeout(b.ID, seq)
	})
}

// releaseLocked tears down a terminal battle: stops its timer, clears both
// participants' battle flags and drops it from the live collection. Caller
// holds the lock.
func (m *Manager) releaseLocked(b *model.Battle) {
	if t, ok := m.timers[b.ID]; ok {
		t.Stop()
		delete(m.timers, b.ID)
	}
	m.registry.ClearBattle(b.Participants[0].ID)
	m.registry.ClearBattle(b.Participants[1].ID)
	delete(m.battles, b.ID)
}

func participants(b *model.Battle) []model.PlayerID {
	return []model.PlayerID{b.Participants[0].ID, b.Participants[1].ID}
}
