package service

import (
	"skillswap/internal/config"
)

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "whsec_test"
)

func testConfig() *config.Config {
	return &config.Config{
		Razorpay: config.RazorpayConfig{
			KeyID:         "rzp_test_key",
			KeySecret:     testKeySecret,
			WebhookSecret: testWebhookSecret,
			Currency:      "INR",
		},
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{LedgerEvents: "ledger-events"},
		},
		RateLimit: config.RateLimitConfig{
			Order:   config.LimitRule{Limit: 5, WindowSeconds: 60},
			Webhook: config.LimitRule{Limit: 20, WindowSeconds: 60},
		},
		Business: config.BusinessConfig{MaxRetryCount: 3},
	}
}
