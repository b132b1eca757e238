package marketdata

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum wall-clock interval between calls to a
// rate-limited upstream. Waiters are admitted one at a time through a
// capacity-1 slot, so a release wakes exactly one caller.
type Throttle struct {
	slot     chan struct{}
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

// NewThrottle creates a throttle with the given minimum interval between calls
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		slot:     make(chan struct{}, 1),
		interval: interval,
	}
}

// Acquire blocks until at least the configured interval has elapsed since the
// previous acquire completed. A cancelled or expired context aborts the wait
// and returns the context error; the last-call timestamp is only advanced on
// a successful acquire.
func (t *Throttle) Acquire(ctx context.Context) error {
	select {
	case t.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-t.slot }()

	t.mu.Lock()
	wait := t.interval - time.Since(t.lastCall)
	t.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	t.mu.Lock()
	t.lastCall = time.Now()
	t.mu.Unlock()
	return nil
}

// Interval returns the configured minimum interval
func (t *Throttle) Interval() time.Duration {
	return t.interval
}
