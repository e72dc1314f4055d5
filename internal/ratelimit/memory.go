package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepThreshold is the tracked-identifier count above which expired
// windows are swept on the next call.
const DefaultSweepThreshold = 1000

type window struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter keeps windows in process memory. Counters are not shared
// between instances, so limits only hold for a single-instance deployment.
type MemoryLimiter struct {
	mu             sync.Mutex
	windows        map[string]*window
	sweepThreshold int
	now            func() time.Time
}

func NewMemoryLimiter(sweepThreshold int) *MemoryLimiter {
	if sweepThreshold <= 0 {
		sweepThreshold = DefaultSweepThreshold
	}
	return &MemoryLimiter{
		windows:        make(map[string]*window),
		sweepThreshold: sweepThreshold,
		now:            time.Now,
	}
}

// Allow never returns an error.
func (l *MemoryLimiter) Allow(_ context.Context, identifier string, limit int, windowLen time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	if len(l.windows) > l.sweepThreshold {
		for key, w := range l.windows {
			if w.expiresAt.Before(now) {
				delete(l.windows, key)
			}
		}
	}

	w, ok := l.windows[identifier]
	if !ok || w.expiresAt.Before(now) {
		w = &window{count: 1, expiresAt: now.Add(windowLen)}
		l.windows[identifier] = w
		return Result{Success: true, Limit: limit, Remaining: limit - 1, Reset: w.expiresAt}, nil
	}

	if w.count >= limit {
		return Result{Success: false, Limit: limit, Remaining: 0, Reset: w.expiresAt}, nil
	}

	w.count++
	return Result{Success: true, Limit: limit, Remaining: limit - w.count, Reset: w.expiresAt}, nil
}

// Len reports how many identifiers are tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
