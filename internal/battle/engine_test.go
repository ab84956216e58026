package battle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tapduel/internal/dependencies/mocks"
	"github.com/mcoot/tapduel/internal/model"
	"github.com/mcoot/tapduel/internal/registry"
	"github.com/mcoot/tapduel/internal/storage/memory"
	"github.com/mcoot/tapduel/internal/testutil"
)

type EngineSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	registry *registry.Registry
	engine   *Engine
	ctx      context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.registry = registry.New(memory.New(), s.clock, s.random, testutil.NopLogger())
	s.engine = NewEngine(s.clock, s.random, s.registry, testutil.NopLogger())
	s.ctx = context.Background()
}

// join registers a player with the given click power and resource balance
func (s *EngineSuite) join(id model.PlayerID, name string, clickPower, resources int) *model.Player {
	return s.registry.Join(s.ctx, id, model.ProfileUpdate{
		Name:       &name,
		ClickPower: &clickPower,
		Resources:  &resources,
	})
}

// newBattle creates a battle between two fresh players with a fixed id
func (s *EngineSuite) newBattle(clickPower int) *model.Battle {
	challenger := s.join("p1", "Alice", clickPower, 100)
	target := s.join("p2", "Bob", clickPower, 100)
	s.random.QueueString("BATTLE000001")
	return s.engine.NewBattle(challenger, target)
}

// NewBattle tests

func (s *EngineSuite) TestNewBattleInitialState() {
	b := s.newBattle(1)

	s.Equal(model.BattleID("BATTLE000001"), b.ID)
	s.Equal(model.BattleStatusActive, b.Status)
	s.Equal(0, b.Turn)
	s.Equal(model.PlayerID("p1"), b.CurrentPlayer)
	s.Equal(model.MaxHealth, b.Participants[0].Health)
	s.Equal(model.MaxHealth, b.Participants[1].Health)
	s.Empty(b.Actions)
}

func (s *EngineSuite) TestNewBattleChallengerIsFirstParticipant() {
	b := s.newBattle(1)

	s.Equal(model.PlayerID("p1"), b.Participants[0].ID)
	s.Equal(model.PlayerID("p2"), b.Participants[1].ID)
}

// PerformAttack tests

func (s *EngineSuite) TestNormalAttackDeductsCostAndDealsDamage() {
	b := s.newBattle(1)

	// variance band is 2 for damage 10; queue the midpoint for +0
	s.random.QueueIntn(2)
	action, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.Require().NoError(err)

	s.Equal(model.ActionAttack, action.Type)
	s.Equal(NormalAttackDamage, action.Damage)
	s.Equal(NormalAttackCost, action.Cost)
	s.Equal(model.MaxHealth-NormalAttackDamage, b.Participants[1].Health)

	balance, _ := s.registry.Balance("p1")
	s.Equal(100-NormalAttackCost, balance)
}

func (s *EngineSuite) TestAttackAdvancesTurnAndAlternatesOwnership() {
	b := s.newBattle(1)

	s.random.QueueIntn(2)
	_, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.Require().NoError(err)

	s.Equal(1, b.Turn)
	s.Equal(model.PlayerID("p2"), b.CurrentPlayer)

	s.random.QueueIntn(2)
	_, err = s.engine.PerformAttack(s.ctx, b, "p2", false)
	s.Require().NoError(err)

	s.Equal(2, b.Turn)
	s.Equal(model.PlayerID("p1"), b.CurrentPlayer)
}

func (s *EngineSuite) TestClickPowerBonus() {
	b := s.newBattle(30)

	// damage = 10 + 30/10 = 13, variance = 13/5 = 2; midpoint for +0
	s.random.QueueIntn(2)
	action, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.Require().NoError(err)

	s.Equal(13, action.Damage)
}

func (s *EngineSuite) TestSpecialAttackCostAndDamage() {
	b := s.newBattle(1)

	// damage = 25, variance = 5; midpoint for +0
	s.random.QueueIntn(5)
	action, err := s.engine.PerformAttack(s.ctx, b, "p1", true)
	s.Require().NoError(err)

	s.Equal(model.ActionSpecial, action.Type)
	s.Equal(SpecialAttackDamage, action.Damage)
	s.Equal(SpecialAttackCost, action.Cost)

	balance, _ := s.registry.Balance("p1")
	s.Equal(100-SpecialAttackCost, balance)
}

func (s *EngineSuite) TestDamageVarianceBand() {
	// Low extreme: Intn returns 0, damage = 10 - 2
	b := s.newBattle(1)
	s.random.QueueIntn(0)
	action, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.Require().NoError(err)
	s.Equal(8, action.Damage)

	// High extreme: Intn returns 2*variance, damage = 10 + 2
	s.random.QueueIntn(4)
	action, err = s.engine.PerformAttack(s.ctx, b, "p2", false)
	s.Require().NoError(err)
	s.Equal(12, action.Damage)
}

func (s *EngineSuite) TestAttackRejectedWhenNotYourTurn() {
	b := s.newBattle(1)

	_, err := s.engine.PerformAttack(s.ctx, b, "p2", false)
	s.ErrorIs(err, model.ErrNotYourTurn)

	s.Equal(0, b.Turn)
	s.Equal(model.MaxHealth, b.Participants[0].Health)
	balance, _ := s.registry.Balance("p2")
	s.Equal(100, balance)
}

func (s *EngineSuite) TestAttackRejectedWhenInsufficientResources() {
	challenger := s.join("p1", "Alice", 1, 5)
	target := s.join("p2", "Bob", 1, 100)
	s.random.QueueString("BATTLE000001")
	b := s.engine.NewBattle(challenger, target)

	_, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.ErrorIs(err, model.ErrInsufficientResources)

	// Rejected attacks deduct nothing and deal nothing
	s.Equal(model.MaxHealth, b.Participants[1].Health)
	s.Equal(0, b.Turn)
	balance, _ := s.registry.Balance("p1")
	s.Equal(5, balance)
}

func (s *EngineSuite) TestAttackRejectedOnTerminalBattle() {
	b := s.newBattle(1)
	b.Status = model.BattleStatusFinished

	_, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.ErrorIs(err, model.ErrBattleNotActive)
}

func (s *EngineSuite) TestKillingBlowFinishesBattleAndCreditsReward() {
	b := s.newBattle(1)
	b.Participants[1].Health = 8
	b.Turn = 4

	s.random.QueueIntn(2)
	action, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.Require().NoError(err)

	s.True(action.BattleEnd)
	s.Equal("Alice", action.Winner)
	s.Equal(model.BattleStatusFinished, b.Status)
	s.Equal(model.PlayerID("p1"), b.Winner)
	s.Equal(0, b.Participants[1].Health)

	// reward = 50 + 5*4, minus the attack cost
	balance, _ := s.registry.Balance("p1")
	s.Equal(100-NormalAttackCost+RewardBase+RewardPerTurn*4, balance)
}

func (s *EngineSuite) TestHealthNeverObservedNegative() {
	b := s.newBattle(1)
	b.Participants[1].Health = 1

	s.random.QueueIntn(2)
	_, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.Require().NoError(err)

	s.Equal(0, b.Participants[1].Health)
}

func (s *EngineSuite) TestTurnLimitDeclaresHigherHealthWinner() {
	b := s.newBattle(1)
	b.Turn = MaxTurns - 1
	b.Participants[0].Health = 60
	b.Participants[1].Health = 90

	s.random.QueueIntn(2)
	action, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.Require().NoError(err)

	s.True(action.BattleEnd)
	s.Equal(model.BattleStatusFinished, b.Status)
	// p2 took 10 damage down to 80, still above p1's 60
	s.Equal(model.PlayerID("p2"), b.Winner)
	s.Equal("Bob", action.Winner)
}

func (s *EngineSuite) TestTurnLimitTieBreaksByCoinFlip() {
	b := s.newBattle(1)
	b.Turn = MaxTurns - 1
	b.Participants[0].Health = 50
	b.Participants[1].Health = 60

	// p2 takes 10 damage down to 50 for an exact tie; coin flip picks index 1
	s.random.QueueIntn(2, 1)
	_, err := s.engine.PerformAttack(s.ctx, b, "p1", false)
	s.Require().NoError(err)

	s.Equal(model.BattleStatusFinished, b.Status)
	s.Equal(model.PlayerID("p2"), b.Winner)
}

// ApplyTimeout tests

func (s *EngineSuite) TestTimeoutDamagesCurrentPlayerAndAdvancesTurn() {
	b := s.newBattle(1)

	action, finished := s.engine.ApplyTimeout(s.ctx, b)
	s.Require().NotNil(action)
	s.False(finished)

	s.Equal(model.ActionTimeout, action.Type)
	s.Equal(TimeoutDamage, action.Damage)
	s.Equal(model.MaxHealth-TimeoutDamage, b.Participants[0].Health)
	s.Equal(model.MaxHealth, b.Participants[1].Health)
	s.Equal(1, b.Turn)
	s.Equal(model.PlayerID("p2"), b.CurrentPlayer)
}

func (s *EngineSuite) TestTimeoutKillFinishesBattle() {
	b := s.newBattle(1)
	b.Participants[0].Health = TimeoutDamage
	b.Turn = 6

	action, finished := s.engine.ApplyTimeout(s.ctx, b)
	s.Require().NotNil(action)
	s.True(finished)

	s.True(action.BattleEnd)
	s.Equal("Bob", action.Winner)
	s.Equal(model.BattleStatusFinished, b.Status)
	s.Equal(model.PlayerID("p2"), b.Winner)
	s.Equal(0, b.Participants[0].Health)

	balance, _ := s.registry.Balance("p2")
	s.Equal(100+RewardBase+RewardPerTurn*6, balance)
}

func (s *EngineSuite) TestTimeoutIsNoOpOnTerminalBattle() {
	b := s.newBattle(1)
	b.Status = model.BattleStatusCancelled

	action, finished := s.engine.ApplyTimeout(s.ctx, b)
	s.Nil(action)
	s.False(finished)
}

// Finish tests

func (s *EngineSuite) TestFinishIsIdempotent() {
	b := s.newBattle(1)
	b.Turn = 2

	s.engine.Finish(s.ctx, b, "p1")
	s.engine.Finish(s.ctx, b, "p1")

	// Only the first invocation credits the reward
	balance, _ := s.registry.Balance("p1")
	s.Equal(100+RewardBase+RewardPerTurn*2, balance)
}

// Cancel tests

func (s *EngineSuite) TestCancelAppendsActionWithReason() {
	b := s.newBattle(1)

	action := s.engine.Cancel(b, "opponent disconnected")
	s.Require().NotNil(action)

	s.Equal(model.BattleStatusCancelled, b.Status)
	s.Equal(model.ActionCancel, action.Type)
	s.Equal("opponent disconnected", action.Reason)
	s.Equal(model.PlayerID(""), b.Winner)
}

func (s *EngineSuite) TestCancelIsNoOpOnTerminalBattle() {
	b := s.newBattle(1)
	b.Status = model.BattleStatusFinished

	action := s.engine.Cancel(b, "whatever")
	s.Nil(action)
	s.Equal(model.BattleStatusFinished, b.Status)
}
