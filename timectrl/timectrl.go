package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock is the time source threaded through the simulation driver. It
// abstracts both "what time is it" and "wait between ticks" so tests can
// feed arbitrary dt sequences without sleeping.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// Sleep pauses until d has elapsed or ctx is cancelled, returning
	// ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock paces the simulation against the wall clock.
type RealClock struct{}

// Now returns wall-clock time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Sleep waits for d, honouring cancellation.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SteppedClock advances simulation time by a fixed step on every Sleep and
// never blocks. It drives accelerated and deterministic test runs.
type SteppedClock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
}

// NewSteppedClock constructs a clock starting at start that jumps by step
// per tick.
func NewSteppedClock(start time.Time, step time.Duration) *SteppedClock {
	return &SteppedClock{current: start, step: step}
}

// Now returns the current simulation time.
func (c *SteppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Sleep advances simulation time by the fixed step, ignoring d, and
// returns immediately. Cancellation is still observed so aborted runs stop
// at the next tick boundary.
func (c *SteppedClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.current = c.current.Add(c.step)
	c.mu.Unlock()
	return nil
}

// Step returns the fixed increment applied per tick.
func (c *SteppedClock) Step() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}
