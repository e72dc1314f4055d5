package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(threshold int) (*MemoryLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(threshold)
	l.now = clock.Now
	return l, clock
}

func TestMemoryLimiter_FirstCallStartsWindow(t *testing.T) {
	l, clock := newTestLimiter(0)

	res, err := l.Allow(context.Background(), "order:1.2.3.4", 5, time.Minute)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 5, res.Limit)
	assert.Equal(t, 4, res.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), res.Reset)
}

func TestMemoryLimiter_RejectsLimitPlusOne(t *testing.T) {
	for _, limit := range []int{1, 5, 20} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			l, clock := newTestLimiter(0)
			ctx := context.Background()
			start := clock.Now()

			for i := 1; i <= limit; i++ {
				res, _ := l.Allow(ctx, "id", limit, time.Minute)
				require.True(t, res.Success, "call %d", i)
				assert.Equal(t, limit-i, res.Remaining)
				clock.Advance(time.Second)
			}

			res, _ := l.Allow(ctx, "id", limit, time.Minute)
			assert.False(t, res.Success)
			assert.Equal(t, 0, res.Remaining)
			assert.Equal(t, start.Add(time.Minute), res.Reset, "reset stays at the original window expiry")
		})
	}
}

func TestMemoryLimiter_FreshWindowAfterExpiry(t *testing.T) {
	l, clock := newTestLimiter(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = l.Allow(ctx, "id", 2, time.Minute)
	}

	// Exactly at expiry the old window still applies.
	clock.Advance(time.Minute)
	res, _ := l.Allow(ctx, "id", 2, time.Minute)
	assert.False(t, res.Success)

	clock.Advance(time.Millisecond)
	res, _ = l.Allow(ctx, "id", 2, time.Minute)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), res.Reset)
}

func TestMemoryLimiter_IdentifiersAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(0)
	ctx := context.Background()

	res, _ := l.Allow(ctx, "order:a", 1, time.Minute)
	assert.True(t, res.Success)
	res, _ = l.Allow(ctx, "order:a", 1, time.Minute)
	assert.False(t, res.Success)

	res, _ = l.Allow(ctx, "order:b", 1, time.Minute)
	assert.True(t, res.Success)
}

func TestMemoryLimiter_SweepsExpiredAboveThreshold(t *testing.T) {
	l, clock := newTestLimiter(3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("old-%d", i), 1, time.Second)
	}
	assert.Equal(t, 4, l.Len())

	clock.Advance(2 * time.Second)
	_, _ = l.Allow(ctx, "new", 1, time.Second)

	assert.Equal(t, 1, l.Len())
}

func TestMemoryLimiter_NoSweepAtThreshold(t *testing.T) {
	l, clock := newTestLimiter(3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("old-%d", i), 1, time.Second)
	}
	clock.Advance(2 * time.Second)
	_, _ = l.Allow(ctx, "new", 1, time.Second)

	assert.Equal(t, 4, l.Len())
}

func TestMemoryLimiter_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	l := NewMemoryLimiter(0)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := l.Allow(ctx, "webhook:gw", 20, time.Minute)
			if res.Success {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, allowed)
}
