package mocks

import (
	"github.com/mcoot/tapduel/internal/dependencies/random"
)

// MockRandom replays queued values in place of real randomness. Queue the
// variance midpoint (or a battle id) before the call that consumes it; an
// exhausted queue yields zero values, which battle tests read as "no variance".
type MockRandom struct {
	intnQueue   []int
	stringQueue []string
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued value, or 0 when the queue is empty
func (r *MockRandom) Intn(n int) int {
	if len(r.intnQueue) == 0 {
		return 0
	}
	result := r.intnQueue[0]
	r.intnQueue = r.intnQueue[1:]
	return result
}

// String returns the next queued value, or "" when the queue is empty
func (r *MockRandom) String(length int, alphabet string) string {
	if len(r.stringQueue) == 0 {
		return ""
	}
	result := r.stringQueue[0]
	r.stringQueue = r.stringQueue[1:]
	return result
}

// QueueIntn appends values for Intn to return in order
func (r *MockRandom) QueueIntn(values ...int) {
	r.intnQueue = append(r.intnQueue, values...)
}

// QueueString appends values for String to return in order
func (r *MockRandom) QueueString(values ...string) {
	r.stringQueue = append(r.stringQueue, values...)
}

// Reset discards any queued values
func (r *MockRandom) Reset() {
	r.intnQueue = nil
	r.stringQueue = nil
}
