// Package timer tracks elapsed time for single and multi-stage CLI operations.
package timer

import (
	"sync"
	"time"
)

// Timer measures the total time of an operation and the time of its current stage.
type Timer interface {
	// Start resets the timer and starts the first stage.
	Start()
	// NewStage starts a new stage without touching the total.
	NewStage()
	// GetTiming returns the total and current-stage durations.
	GetTiming() (time.Duration, time.Duration)
	// Stop freezes both durations.
	Stop()
}

// Clock returns the current time.
type Clock func() time.Time

type stageTimer struct {
	mu         sync.Mutex
	clock      Clock
	start      time.Time
	stageStart time.Time
	stoppedAt  time.Time
}

// New creates a Timer using the wall clock.
//
//nolint:ireturn // callers depend on the Timer interface
func New() Timer {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Timer driven by clock.
//
//nolint:ireturn // callers depend on the Timer interface
func NewWithClock(clock Clock) Timer {
	return &stageTimer{clock: clock}
}

func (t *stageTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	t.start = now
	t.stageStart = now
	t.stoppedAt = time.Time{}
}

func (t *stageTimer) NewStage() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() {
		t.start = t.clock()
	}

	t.stageStart = t.clock()
}

func (t *stageTimer) GetTiming() (time.Duration, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() {
		return 0, 0
	}

	now := t.stoppedAt
	if now.IsZero() {
		now = t.clock()
	}

	return now.Sub(t.start), now.Sub(t.stageStart)
}

func (t *stageTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stoppedAt.IsZero() {
		t.stoppedAt = t.clock()
	}
}
