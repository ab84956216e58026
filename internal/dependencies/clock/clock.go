package clock

import "time"

// Timer is a single-shot timer handle
type Timer interface {
	// Stop prevents the timer from firing. It reports whether the timer was
	// still pending; false means it already fired or was stopped.
	Stop() bool
}

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time

	// AfterFunc schedules f to run once after d elapses
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f on a real time.Timer
func (c *RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
