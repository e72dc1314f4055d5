package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillswap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_rate_limit_rejections_total",
			Help: "Requests rejected by the fixed-window limiter",
		},
		[]string{"scope"},
	)

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_webhook_events_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	CreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_credits_total",
			Help: "Skill Credit purchase credits by source and result",
		},
		[]string{"source", "result"},
	)

	CreditedSCTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skillswap_credited_sc_total",
			Help: "Skill Credits added to balances by purchases",
		},
	)

	EscrowOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_escrow_operations_total",
			Help: "Escrow hold/release/refund operations by result",
		},
		[]string{"operation", "result"},
	)

	OutboxMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skillswap_outbox_messages",
			Help: "Ledger event outbox rows by status",
		},
		[]string{"status"},
	)
)

// Webhook outcomes.
const (
	WebhookRejected  = "rejected"
	WebhookIgnored   = "ignored"
	WebhookSkipped   = "skipped"
	WebhookCredited  = "credited"
	WebhookDuplicate = "duplicate"
	WebhookFailed    = "failed"
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordRateLimitRejection(scope string) {
	RateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

func RecordWebhook(outcome string) {
	WebhookEventsTotal.WithLabelValues(outcome).Inc()
}

func RecordCredit(source string, applied bool, amount int64) {
	result := "duplicate"
	if applied {
		result = "applied"
		CreditedSCTotal.Add(float64(amount))
	}
	CreditsTotal.WithLabelValues(source, result).Inc()
}

func RecordEscrow(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EscrowOperationsTotal.WithLabelValues(operation, result).Inc()
}

func SetOutboxBacklog(counts map[string]int64) {
	for status, n := range counts {
		OutboxMessages.WithLabelValues(status).Set(float64(n))
	}
}
