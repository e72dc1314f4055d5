// Package ratelimit implements the fixed-window request throttle used by the
// payment endpoints. Two backends share one contract: MemoryLimiter for a
// single instance and RedisLimiter for a fleet.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of an identifier's window after a call.
type Result struct {
	Success   bool
	Limit     int
	Remaining int
	// Reset is when the current window expires.
	Reset time.Time
}

// Limiter counts calls per identifier in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (Result, error)
}
