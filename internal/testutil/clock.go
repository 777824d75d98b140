package testutil

import (
	"sync"
	"time"
)

// Epoch is the first instant returned by a fresh StepClock.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// StepClock provides a thread-safe deterministic wall clock for tests.
//
// Each call to Now returns the current instant and then advances it by the
// step. A zero step freezes the clock, which is how tests produce chapters
// with identical created_at values.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	next  time.Time
	step  time.Duration
}

// NewStepClock creates a clock starting at Epoch that advances one second
// per call.
func NewStepClock() *StepClock {
	return NewStepClockAt(Epoch, time.Second)
}

// NewStepClockAt creates a clock starting at start that advances by step.
func NewStepClockAt(start time.Time, step time.Duration) *StepClock {
	return &StepClock{start: start, next: start, step: step}
}

// Now returns the current instant and advances the clock.
//
// Its signature matches time.Now so it can be passed wherever a clock
// function is accepted.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(c.step)
	return now
}

// Peek returns the instant the next call to Now will return.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset rewinds the clock to its start.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
