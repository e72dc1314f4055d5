package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "ratelimit:"

// windowScript increments the counter and starts the window on the first hit.
// It returns {count, pttl}. The PTTL guard repairs a key that lost its expiry.
const windowScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// RedisLimiter keeps windows in Redis so every instance shares one counter per
// identifier. The script runs atomically, so concurrent callers cannot both
// observe the same count.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, identifier string, limit int, windowLen time.Duration) (Result, error) {
	res, err := l.client.Eval(ctx, windowScript, []string{keyPrefix + identifier}, windowLen.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return Result{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	count, ok1 := vals[0].(int64)
	ttl, ok2 := vals[1].(int64)
	if !ok1 || !ok2 {
		return Result{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	reset := l.now().Add(time.Duration(ttl) * time.Millisecond)
	if count > int64(limit) {
		return Result{Success: false, Limit: limit, Remaining: 0, Reset: reset}, nil
	}
	return Result{Success: true, Limit: limit, Remaining: limit - int(count), Reset: reset}, nil
}
