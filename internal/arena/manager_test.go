package arena

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tapduel/internal/battle"
	"github.com/mcoot/tapduel/internal/dependencies/mocks"
	"github.com/mcoot/tapduel/internal/model"
	"github.com/mcoot/tapduel/internal/registry"
	"github.com/mcoot/tapduel/internal/storage/memory"
	"github.com/mcoot/tapduel/internal/testutil"
)

// recordingBroadcaster captures emitted events for assertions
type recordingBroadcaster struct {
	challenges       []model.ChallengeReceivedPayload
	started          []model.BattleSnapshot
	updated          []model.BattleSnapshot
	declined         []model.BattleDeclinedPayload
	cancelled        []model.BattleCancelledPayload
	cancelledTargets []model.PlayerID
	playerListCount  int
}

func (r *recordingBroadcaster) ChallengeReceived(target model.PlayerID, payload model.ChallengeReceivedPayload) {
	r.challenges = append(r.challenges, payload)
}

func (r *recordingBroadcaster) BattleStarted(participants []model.PlayerID, snapshot model.BattleSnapshot) {
	r.started = append(r.started, snapshot)
}

func (r *recordingBroadcaster) BattleUpdated(participants []model.PlayerID, snapshot model.BattleSnapshot) {
	r.updated = append(r.updated, snapshot)
}

func (r *recordingBroadcaster) BattleDeclined(challenger model.PlayerID, payload model.BattleDeclinedPayload) {
	r.declined = append(r.declined, payload)
}

func (r *recordingBroadcaster) BattleCancelled(target model.PlayerID, payload model.BattleCancelledPayload) {
	r.cancelled = append(r.cancelled, payload)
	r.cancelledTargets = append(r.cancelledTargets, target)
}

func (r *recordingBroadcaster) PlayerListChanged() {
	r.playerListCount++
}

type ManagerSuite struct {
	suite.Suite
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	registry    *registry.Registry
	engine      *battle.Engine
	broadcaster *recordingBroadcaster
	manager     *Manager
	ctx         context.Context
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.registry = registry.New(memory.New(), s.clock, s.random, testutil.NopLogger())
	s.engine = battle.NewEngine(s.clock, s.random, s.registry, testutil.NopLogger())
	s.broadcaster = &recordingBroadcaster{}
	s.manager = NewManager(s.engine, s.registry, s.clock, s.broadcaster, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ManagerSuite) join(id model.PlayerID, name string) {
	s.registry.Join(s.ctx, id, model.ProfileUpdate{Name: &name})
}

// startBattle joins two players and runs challenge/accept
func (s *ManagerSuite) startBattle() model.BattleID {
	s.join("p1", "Alice")
	s.join("p2", "Bob")

	s.Require().NoError(s.manager.Challenge(s.ctx, "p1", "p2"))

	s.random.QueueString("BATTLE000001")
	snap, err := s.manager.Accept(s.ctx, "p1", "p2")
	s.Require().NoError(err)
	return snap.ID
}

// Challenge tests

func (s *ManagerSuite) TestChallengeNotifiesTarget() {
	s.join("p1", "Alice")
	s.join("p2", "Bob")

	err := s.manager.Challenge(s.ctx, "p1", "p2")
	s.Require().NoError(err)

	s.Require().Len(s.broadcaster.challenges, 1)
	s.Equal(model.PlayerID("p1"), s.broadcaster.challenges[0].ChallengerID)
	s.Equal("Alice", s.broadcaster.challenges[0].ChallengerName)

	// No battle exists until acceptance
	s.Equal(0, s.manager.Count())
	s.False(s.registry.InBattle("p1"))
}

func (s *ManagerSuite) TestChallengeRejectsSelf() {
	s.join("p1", "Alice")

	err := s.manager.Challenge(s.ctx, "p1", "p1")
	s.ErrorIs(err, model.ErrSelfChallenge)
}

func (s *ManagerSuite) TestChallengeRejectsUnknownTarget() {
	s.join("p1", "Alice")

	err := s.manager.Challenge(s.ctx, "p1", "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ManagerSuite) TestChallengeRejectsUnknownChallenger() {
	s.join("p2", "Bob")

	err := s.manager.Challenge(s.ctx, "nonexistent", "p2")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ManagerSuite) TestChallengeRejectsPoorChallenger() {
	name := "Alice"
	resources := battle.NormalAttackCost - 1
	s.registry.Join(s.ctx, "p1", model.ProfileUpdate{Name: &name, Resources: &resources})
	s.join("p2", "Bob")

	err := s.manager.Challenge(s.ctx, "p1", "p2")
	s.ErrorIs(err, model.ErrInsufficientResources)
}

// Accept tests

func (s *ManagerSuite) TestAcceptCreatesBattle() {
	id := s.startBattle()

	s.Equal(1, s.manager.Count())
	s.True(s.registry.InBattle("p1"))
	s.True(s.registry.InBattle("p2"))

	snap, err := s.manager.Snapshot(id)
	s.Require().NoError(err)
	s.Equal(model.BattleStatusActive, snap.Status)
	s.Equal(model.PlayerID("p1"), snap.CurrentPlayer)

	s.Require().Len(s.broadcaster.started, 1)
	s.Equal(1, s.broadcaster.playerListCount)
}

func (s *ManagerSuite) TestAcceptArmsTurnTimer() {
	s.startBattle()
	s.Equal(1, s.clock.PendingTimers())
}

func (s *ManagerSuite) TestAcceptRevalidates() {
	s.join("p1", "Alice")
	s.join("p2", "Bob")
	s.join("p3", "Carol")

	s.Require().NoError(s.manager.Challenge(s.ctx, "p1", "p2"))

	// p2 enters a battle with p3 before accepting p1's challenge
	s.Require().NoError(s.manager.Challenge(s.ctx, "p3", "p2"))
	s.random.QueueString("BATTLE000001")
	_, err := s.manager.Accept(s.ctx, "p3", "p2")
	s.Require().NoError(err)

	_, err = s.manager.Accept(s.ctx, "p1", "p2")
	s.ErrorIs(err, model.ErrAlreadyInBattle)
	s.Equal(1, s.manager.Count())
}

// Decline tests

func (s *ManagerSuite) TestDeclineNotifiesChallenger() {
	s.join("p1", "Alice")
	s.join("p2", "Bob")

	err := s.manager.Decline(s.ctx, "p1", "p2", "busy")
	s.Require().NoError(err)

	s.Require().Len(s.broadcaster.declined, 1)
	s.Equal(model.PlayerID("p2"), s.broadcaster.declined[0].TargetID)
	s.Equal("busy", s.broadcaster.declined[0].Reason)
	s.Equal(0, s.manager.Count())
}

// Attack tests

func (s *ManagerSuite) TestAttackResolvesTurn() {
	id := s.startBattle()

	s.random.QueueIntn(2)
	snap, err := s.manager.Attack(s.ctx, "p1", id, false)
	s.Require().NoError(err)

	s.Equal(1, snap.Turn)
	s.Equal(model.PlayerID("p2"), snap.CurrentPlayer)
	s.Equal(model.MaxHealth-battle.NormalAttackDamage, snap.Participants[1].Health)
	s.Require().NotEmpty(s.broadcaster.updated)
}

func (s *ManagerSuite) TestAttackRearmsTimer() {
	id := s.startBattle()

	s.random.QueueIntn(2)
	_, err := s.manager.Attack(s.ctx, "p1", id, false)
	s.Require().NoError(err)

	// The original timer is stopped and a fresh one armed
	s.Equal(1, s.clock.PendingTimers())
}

func (s *ManagerSuite) TestAttackFailureReasonsAreDistinct() {
	id := s.startBattle()
	s.join("p3", "Carol")

	_, err := s.manager.Attack(s.ctx, "p1", "NOSUCH", false)
	s.ErrorIs(err, model.ErrBattleNotFound)

	_, err = s.manager.Attack(s.ctx, "p3", id, false)
	s.ErrorIs(err, model.ErrNotParticipant)

	_, err = s.manager.Attack(s.ctx, "p2", id, false)
	s.ErrorIs(err, model.ErrNotYourTurn)
}

func (s *ManagerSuite) TestKillingBlowReleasesBattle() {
	id := s.startBattle()

	// Drive the defender to one hit from death
	b, err := s.manager.Snapshot(id)
	s.Require().NoError(err)
	s.Require().NotNil(b)

	s.manager.mu.Lock()
	s.manager.battles[id].Participants[1].Health = 1
	s.manager.mu.Unlock()

	s.random.QueueIntn(2)
	snap, err := s.manager.Attack(s.ctx, "p1", id, false)
	s.Require().NoError(err)

	s.Equal(model.BattleStatusFinished, snap.Status)
	s.Equal(model.PlayerID("p1"), snap.Winner)

	s.Equal(0, s.manager.Count())
	s.False(s.registry.InBattle("p1"))
	s.False(s.registry.InBattle("p2"))
	s.Equal(0, s.clock.PendingTimers())

	// Further attacks against the released battle fail
	_, err = s.manager.Attack(s.ctx, "p2", id, false)
	s.ErrorIs(err, model.ErrBattleNotFound)
}

// Cancel tests

func (s *ManagerSuite) TestCancelReleasesBattle() {
	id := s.startBattle()

	err := s.manager.Cancel(s.ctx, "p1", id, "changed my mind")
	s.Require().NoError(err)

	s.Equal(0, s.manager.Count())
	s.False(s.registry.InBattle("p1"))
	s.False(s.registry.InBattle("p2"))
	s.Equal(0, s.clock.PendingTimers())

	// The final broadcast carries the cancelled status
	last := s.broadcaster.updated[len(s.broadcaster.updated)-1]
	s.Equal(model.BattleStatusCancelled, last.Status)
}

func (s *ManagerSuite) TestCancelRejectsNonParticipant() {
	id := s.startBattle()
	s.join("p3", "Carol")

	err := s.manager.Cancel(s.ctx, "p3", id, "nope")
	s.ErrorIs(err, model.ErrNotParticipant)
	s.Equal(1, s.manager.Count())
}

// Disconnect tests

func (s *ManagerSuite) TestDisconnectCancelsBattleAndNotifiesOpponent() {
	id := s.startBattle()

	s.manager.OnDisconnect(s.ctx, "p1")

	s.Equal(0, s.manager.Count())
	s.False(s.registry.InBattle("p2"))

	s.Require().Len(s.broadcaster.cancelled, 1)
	s.Equal(model.PlayerID("p2"), s.broadcaster.cancelledTargets[0])
	s.Equal(id, s.broadcaster.cancelled[0].BattleID)
	s.Equal("opponent disconnected", s.broadcaster.cancelled[0].Reason)
}

func (s *ManagerSuite) TestDisconnectWithoutBattleIsNoOp() {
	s.join("p1", "Alice")

	s.manager.OnDisconnect(s.ctx, "p1")
	s.Empty(s.broadcaster.cancelled)
}

// Timeout tests

func (s *ManagerSuite) TestTimerFireAppliesTimeoutAndRearms() {
	id := s.startBattle()

	s.clock.Advance(battle.TurnTimeout)

	snap, err := s.manager.Snapshot(id)
	s.Require().NoError(err)
	s.Equal(model.MaxHealth-battle.TimeoutDamage, snap.Participants[0].Health)
	s.Equal(1, snap.Turn)
	s.Equal(model.PlayerID("p2"), snap.CurrentPlayer)
	s.Equal(1, s.clock.PendingTimers())
}

func (s *ManagerSuite) TestTurnOwnershipAlternatesAcrossTimeouts() {
	id := s.startBattle()

	s.clock.Advance(battle.TurnTimeout)
	s.clock.Advance(battle.TurnTimeout)

	snap, err := s.manager.Snapshot(id)
	s.Require().NoError(err)
	s.Equal(2, snap.Turn)
	s.Equal(model.PlayerID("p1"), snap.CurrentPlayer)
	s.Equal(model.MaxHealth-battle.TimeoutDamage, snap.Participants[0].Health)
	s.Equal(model.MaxHealth-battle.TimeoutDamage, snap.Participants[1].Health)
}

func (s *ManagerSuite) TestRepeatedTimeoutsFinishBattle() {
	s.startBattle()

	// Participants alternate taking 5 damage per fire; the challenger hits
	// zero on the 39th fire and the battle ends
	s.clock.Advance(39 * battle.TurnTimeout)

	s.Equal(0, s.manager.Count())
	s.Equal(0, s.clock.PendingTimers())
	s.False(s.registry.InBattle("p1"))
	s.False(s.registry.InBattle("p2"))

	last := s.broadcaster.updated[len(s.broadcaster.updated)-1]
	s.Equal(model.BattleStatusFinished, last.Status)
	s.Equal(model.PlayerID("p2"), last.Winner)
	s.Equal(0, last.Participants[0].Health)
}

func (s *ManagerSuite) TestStaleTimerFireIsIgnored() {
	id := s.startBattle()

	s.manager.mu.Lock()
	staleSeq := s.manager.battles[id].TimerSeq - 1
	s.manager.mu.Unlock()

	s.manager.onTurnTimeout(id, staleSeq)

	snap, err := s.manager.Snapshot(id)
	s.Require().NoError(err)
	s.Equal(model.MaxHealth, snap.Participants[0].Health)
	s.Equal(0, snap.Turn)
}

func (s *ManagerSuite) TestTimerFireOnReleasedBattleIsIgnored() {
	id := s.startBattle()

	s.manager.mu.Lock()
	seq := s.manager.battles[id].TimerSeq
	s.manager.mu.Unlock()

	s.Require().NoError(s.manager.Cancel(s.ctx, "p1", id, "done"))

	// A callback that was already in flight when the battle was released
	s.manager.onTurnTimeout(id, seq)
	s.Equal(0, s.manager.Count())
}

// Snapshot tests

func (s *ManagerSuite) TestSnapshotUnknownBattle() {
	_, err := s.manager.Snapshot("NOSUCH")
	s.ErrorIs(err, model.ErrBattleNotFound)
}

// Invariant: one live battle per player

func (s *ManagerSuite) TestPlayerNeverInTwoBattles() {
	s.startBattle()
	s.join("p3", "Carol")

	err := s.manager.Challenge(s.ctx, "p3", "p1")
	s.ErrorIs(err, model.ErrAlreadyInBattle)

	err = s.manager.Challenge(s.ctx, "p1", "p3")
	s.ErrorIs(err, model.ErrAlreadyInBattle)
}
