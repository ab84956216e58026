package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/tapduel/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Timers scheduled with AfterFunc fire synchronously from Advance.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	timers  []*mockTimer
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

type mockTimer struct {
	clk      *MockClock
	deadline time.Time
	f        func()
	stopped  bool
	fired    bool
}

// Stop prevents the timer from firing
func (t *mockTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run when the clock is advanced past d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{clk: c, deadline: c.current.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by the given duration, firing any due
// timers in deadline order. Callbacks run on the caller's goroutine and may
// schedule further timers.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()

	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	c.mu.Lock()
	c.current = target
	c.mu.Unlock()
}

// Set sets the clock to the given time without firing timers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// PendingTimers returns the number of timers that have not fired or been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// nextDue pops the earliest unfired timer with deadline <= target, advancing
// the clock to that deadline so callbacks observe a consistent Now
func (c *MockClock) nextDue(target time.Time) *mockTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due *mockTimer
	for _, t := range c.timers {
		if t.fired || t.stopped || t.deadline.After(target) {
			continue
		}
		if due == nil || t.deadline.Before(due.deadline) {
			due = t
		}
	}
	if due == nil {
		return nil
	}
	due.fired = true
	if due.deadline.After(c.current) {
		c.current = due.deadline
	}
	c.compact()
	return due
}

// compact drops finished timers so long-running tests don't accumulate them
func (c *MockClock) compact() {
	if len(c.timers) < 64 {
		return
	}
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.Slice(c.timers, func(i, j int) bool {
		return c.timers[i].deadline.Before(c.timers[j].deadline)
	})
}
