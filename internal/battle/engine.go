package battle

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/tapduel/internal/dependencies/clock"
	"github.com/mcoot/tapduel/internal/dependencies/random"
	"github.com/mcoot/tapduel/internal/model"
)

// Battle tuning constants
const (
	NormalAttackCost   = 10
	SpecialAttackCost  = 25
	NormalAttackDamage = 10
	SpecialAttackDamage = 25

	// ClickPowerDivisor converts click power into bonus damage:
	// bonus = clickPower / ClickPowerDivisor (integer division)
	ClickPowerDivisor = 10

	// VarianceDivisor sets the symmetric damage variance band:
	// variance = damage / VarianceDivisor, final damage +- variance
	VarianceDivisor = 5

	// TimeoutDamage is the fixed penalty for letting the turn timer fire.
	// It is not subject to click-power bonus or variance.
	TimeoutDamage = 5

	MaxTurns    = 20
	TurnTimeout = 30 * time.Second

	// Winner reward = RewardBase + RewardPerTurn * turns elapsed
	RewardBase    = 50
	RewardPerTurn = 5
)

const (
	battleIDLength   = 12
	battleIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Ledger applies resource mutations back to the player registry. The battle
// owns only a snapshot of each participant's identity and click power.
type Ledger interface {
	Balance(id model.PlayerID) (int, error)
	Spend(ctx context.Context, id model.PlayerID, amount int) error
	Credit(ctx context.Context, id model.PlayerID, amount int) error
}

// Engine resolves battle state transitions. It does not synchronize access;
// the battle manager serializes all calls for a given battle.
type Engine struct {
	clock  clock.Clock
	random random.Random
	ledger Ledger
	logger *slog.Logger
}

// NewEngine creates a battle engine
func NewEngine(clk clock.Clock, rnd random.Random, ledger Ledger, logger *slog.Logger) *Engine {
	return &Engine{
		clock:  clk,
		random: rnd,
		ledger: ledger,
		logger: logger.With(slog.String("component", "battle")),
	}
}

// NewBattle constructs an active battle between two players. The challenger
// is the first participant and owns the first turn.
func (e *Engine) NewBattle(challenger, target *model.Player) *model.Battle {
	now := e.clock.Now()
	return &model.Battle{
		ID: model.BattleID(e.random.String(battleIDLength, battleIDAlphabet)),
		Participants: [2]model.Participant{
			{ID: challenger.ID, Name: challenger.Name, ClickPower: challenger.ClickPower, Health: model.MaxHealth},
			{ID: target.ID, Name: target.Name, ClickPower: target.ClickPower, Health: model.MaxHealth},
		},
		Turn:          0,
		CurrentPlayer: challenger.ID,
		Status:        model.BattleStatusActive,
		StartedAt:     now,
		LastActionAt:  now,
	}
}

// PerformAttack resolves one attack. On rejection the battle is unchanged and
// nothing is deducted; on acceptance the cost is deducted up front regardless
// of the damage outcome.
func (e *Engine) PerformAttack(ctx context.Context, b *model.Battle, attackerID model.PlayerID, special bool) (*model.BattleAction, error) {
	if b.Terminal() {
		return nil, model.ErrBattleNotActive
	}
	if attackerID != b.CurrentPlayer {
		return nil, model.ErrNotYourTurn
	}

	atkIdx := b.ParticipantIndex(attackerID)
	defIdx := 1 - atkIdx
	attacker := &b.Participants[atkIdx]
	defender := &b.Participants[defIdx]

	cost := NormalAttackCost
	base := NormalAttackDamage
	actionType := model.ActionAttack
	if special {
		cost = SpecialAttackCost
		base = SpecialAttackDamage
		actionType = model.ActionSpecial
	}

	// Spend rejects overdrafts before mutating anything
	if err := e.ledger.Spend(ctx, attackerID, cost); err != nil {
		return nil, err
	}

	damage := base + attacker.ClickPower/ClickPowerDivisor
	if variance := damage / VarianceDivisor; variance > 0 {
		damage += e.random.Intn(2*variance+1) - variance
	}

	defender.Health -= damage
	if defender.Health < 0 {
		defender.Health = 0
	}

	now := e.clock.Now()
	action := model.BattleAction{
		Type:      actionType,
		Attacker:  attacker.Name,
		Defender:  defender.Name,
		Damage:    damage,
		Cost:      cost,
		Turn:      b.Turn,
		Timestamp: now,
	}

	if defender.Health == 0 {
		action.BattleEnd = true
		action.Winner = attacker.Name
		b.Actions = append(b.Actions, action)
		b.LastActionAt = now
		e.Finish(ctx, b, attacker.ID)
		return &b.Actions[len(b.Actions)-1], nil
	}

	b.CurrentPlayer = defender.ID
	b.Turn++

	if b.Turn >= MaxTurns {
		winner := e.healthWinner(b)
		action.BattleEnd = true
		action.Winner = b.Participants[b.ParticipantIndex(winner)].Name
		b.Actions = append(b.Actions, action)
		b.LastActionAt = now
		e.Finish(ctx, b, winner)
		return &b.Actions[len(b.Actions)-1], nil
	}

	b.Actions = append(b.Actions, action)
	b.LastActionAt = now
	return &b.Actions[len(b.Actions)-1], nil
}

// ApplyTimeout resolves a turn-timer expiry: the current player skips their
// turn and takes fixed penalty damage. Returns the appended action and
// whether the battle finished as a result. A no-op on terminal battles.
func (e *Engine) ApplyTimeout(ctx context.Context, b *model.Battle) (*model.BattleAction, bool) {
	if b.Terminal() {
		return nil, false
	}

	idx := b.ParticipantIndex(b.CurrentPlayer)
	skipper := &b.Participants[idx]
	opponent := &b.Participants[1-idx]

	skipper.Health -= TimeoutDamage
	if skipper.Health < 0 {
		skipper.Health = 0
	}

	now := e.clock.Now()
	action := model.BattleAction{
		Type:      model.ActionTimeout,
		Defender:  skipper.Name,
		Damage:    TimeoutDamage,
		Turn:      b.Turn,
		Timestamp: now,
	}

	if skipper.Health == 0 {
		action.BattleEnd = true
		action.Winner = opponent.Name
		b.Actions = append(b.Actions, action)
		b.LastActionAt = now
		e.Finish(ctx, b, opponent.ID)
		return &b.Actions[len(b.Actions)-1], true
	}

	b.CurrentPlayer = opponent.ID
	b.Turn++
	b.Actions = append(b.Actions, action)
	b.LastActionAt = now
	return &b.Actions[len(b.Actions)-1], false
}

// Finish marks the battle finished and credits the winner's reward.
// Idempotent: only the first invocation on a battle takes effect.
func (e *Engine) Finish(ctx context.Context, b *model.Battle, winnerID model.PlayerID) {
	if b.Terminal() {
		return
	}
	b.Status = model.BattleStatusFinished
	b.Winner = winnerID

	reward := RewardBase + RewardPerTurn*b.Turn
	if err := e.ledger.Credit(ctx, winnerID, reward); err != nil {
		e.logger.Warn("failed to credit battle reward",
			slog.String("battle_id", string(b.ID)),
			slog.String("winner", string(winnerID)),
			slog.Int("reward", reward),
			slog.String("error", err.Error()),
		)
	}

	e.logger.Info("battle finished",
		slog.String("battle_id", string(b.ID)),
		slog.String("winner", string(winnerID)),
		slog.Int("turns", b.Turn),
		slog.Int("reward", reward),
	)
}

// Cancel marks the battle cancelled and appends a cancel action carrying the
// reason. A no-op on terminal battles.
func (e *Engine) Cancel(b *model.Battle, reason string) *model.BattleAction {
	if b.Terminal() {
		return nil
	}
	b.Status = model.BattleStatusCancelled

	now := e.clock.Now()
	b.Actions = append(b.Actions, model.BattleAction{
		Type:      model.ActionCancel,
		Reason:    reason,
		Turn:      b.Turn,
		Timestamp: now,
	})
	b.LastActionAt = now

	e.logger.Info("battle cancelled",
		slog.String("battle_id", string(b.ID)),
		slog.String("reason", reason),
	)
	return &b.Actions[len(b.Actions)-1]
}

// healthWinner picks the winner at the turn limit: higher health wins, exact
// ties are broken by a uniform coin flip
func (e *Engine) healthWinner(b *model.Battle) model.PlayerID {
	switch {
	case b.Participants[0].Health > b.Participants[1].Health:
		return b.Participants[0].ID
	case b.Participants[1].Health > b.Participants[0].Health:
		return b.Participants[1].ID
	default:
		return b.Participants[e.random.Intn(2)].ID
	}
}
