package marketdata

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_EnforcesMinimumGap(t *testing.T) {
	interval := 50 * time.Millisecond
	throttle := NewThrottle(interval)

	const callers = 4
	times := make([]time.Time, 0, callers)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, throttle.Acquire(context.Background()))
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, times, callers)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		// Allow a millisecond of timer slack
		assert.GreaterOrEqual(t, gap, interval-time.Millisecond,
			"calls %d and %d started %v apart, want at least %v", i-1, i, gap, interval)
	}
}

func TestThrottle_FirstAcquireIsImmediate(t *testing.T) {
	throttle := NewThrottle(time.Minute)

	start := time.Now()
	require.NoError(t, throttle.Acquire(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestThrottle_ContextCancellationAbortsWait(t *testing.T) {
	throttle := NewThrottle(time.Minute)
	require.NoError(t, throttle.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := throttle.Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestThrottle_AbortedWaitDoesNotAdvanceLastCall(t *testing.T) {
	interval := 80 * time.Millisecond
	throttle := NewThrottle(interval)
	require.NoError(t, throttle.Acquire(context.Background()))
	firstAt := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	require.Error(t, throttle.Acquire(ctx))
	cancel()

	// A successful acquire still honors the interval from the first call,
	// not from the aborted attempt
	require.NoError(t, throttle.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(firstAt), interval-time.Millisecond)
}
