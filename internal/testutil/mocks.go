package testutil

import (
	"sync"
	"time"
)

// MockClock implements a Now() time.Time clock with controllable time.
// It is used across throttler tests to avoid actual time delays.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Counter is a logical clock that returns 0, 1, 2, ... on successive calls.
type Counter struct {
	mu   sync.Mutex
	next uint64
}

// Next returns the current tick and advances the counter.
func (c *Counter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.next
	c.next++
	return v
}

// Calls returns how many times Next has been called.
func (c *Counter) Calls() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Recorder collects messages handed to accept and reject callbacks.
type Recorder[M any] struct {
	mu       sync.Mutex
	accepted []M
	rejected []M
}

// NewRecorder creates an empty Recorder.
func NewRecorder[M any]() *Recorder[M] {
	return &Recorder[M]{}
}

// Accept records an accepted message.
func (r *Recorder[M]) Accept(m M) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted = append(r.accepted, m)
}

// Reject records a rejected message.
func (r *Recorder[M]) Reject(m M) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, m)
}

// Accepted returns a copy of the accepted messages in callback order.
func (r *Recorder[M]) Accepted() []M {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]M(nil), r.accepted...)
}

// Rejected returns a copy of the rejected messages in callback order.
func (r *Recorder[M]) Rejected() []M {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]M(nil), r.rejected...)
}

// LastAccepted returns the most recently accepted message, or the zero
// value if nothing was accepted.
func (r *Recorder[M]) LastAccepted() M {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero M
	if len(r.accepted) == 0 {
		return zero
	}
	return r.accepted[len(r.accepted)-1]
}

// LastRejected returns the most recently rejected message, or the zero
// value if nothing was rejected.
func (r *Recorder[M]) LastRejected() M {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero M
	if len(r.rejected) == 0 {
		return zero
	}
	return r.rejected[len(r.rejected)-1]
}

// Total returns the number of recorded callbacks of either kind.
func (r *Recorder[M]) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accepted) + len(r.rejected)
}
