package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/metrics"
	"skillswap/internal/ratelimit"
)

const (
	ScopeOrder   = "order"
	ScopeWebhook = "webhook"
)

// checkRateLimit counts a call for scope:client. Backend errors let the call
// through; a throttle outage must not take payments down with it.
func checkRateLimit(ctx context.Context, limiter ratelimit.Limiter, scope, client string, rule config.LimitRule) (ratelimit.Result, error) {
	if client == "" {
		client = "anon"
	}
	window := time.Duration(rule.WindowSeconds) * time.Second

	res, err := limiter.Allow(ctx, scope+":"+client, rule.Limit, window)
	if err != nil {
		zap.S().Warnw("[RateLimit] limiter unavailable, allowing request", "scope", scope, "client", client, "err", err)
		return ratelimit.Result{Success: true, Limit: rule.Limit, Remaining: rule.Limit, Reset: time.Now().Add(window)}, nil
	}
	if !res.Success {
		metrics.RecordRateLimitRejection(scope)
		return res, &RateLimitError{Scope: scope, Result: res}
	}
	return res, nil
}
