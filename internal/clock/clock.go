package clock

import (
	"sync"
	"time"
)

// Clock is the single source of the current time for the service
type Clock interface {
	Now() time.Time
}

// System returns the wall clock in UTC, truncated to microseconds so values
// round-trip through both SQLite and Postgres unchanged.
func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Mock is a manually driven clock for tests
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock creates a mock clock fixed at t
func NewMock(t time.Time) *Mock {
	return &Mock{now: t.UTC().Truncate(time.Microsecond)}
}

// Now returns the mock's current time
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the mock to t
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t.UTC().Truncate(time.Microsecond)
}

// Advance moves the mock forward by d
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
