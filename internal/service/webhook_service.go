package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillswap/internal/config"
	"skillswap/internal/infrastructure/gateway"
	"skillswap/internal/metrics"
	"skillswap/internal/model"
	"skillswap/internal/ratelimit"
	"skillswap/internal/repository"
)

// WebhookService turns signed gateway notifications into ledger credits.
type WebhookService struct {
	ledger      *LedgerService
	paymentRepo *repository.PaymentRepository
	limiter     ratelimit.Limiter
	cfg         *config.Config
}

func NewWebhookService(db *gorm.DB, ledger *LedgerService, limiter ratelimit.Limiter, cfg *config.Config) *WebhookService {
	return &WebhookService{
		ledger:      ledger,
		paymentRepo: repository.NewPaymentRepository(db),
		limiter:     limiter,
		cfg:         cfg,
	}
}

// WebhookResult reports what happened to an accepted delivery. Every outcome
// is acknowledged with 200.
type WebhookResult struct {
	Outcome   string
	PaymentID string
	RateLimit ratelimit.Result
}

// Handle processes one delivery. Errors are returned only for throttled,
// unauthenticated or unparseable requests; a failed credit is recorded for the
// retry job and reported as an outcome.
func (s *WebhookService) Handle(ctx context.Context, clientID string, body []byte, signature string) (*WebhookResult, error) {
	rl, err := checkRateLimit(ctx, s.limiter, ScopeWebhook, clientID, s.cfg.RateLimit.Webhook)
	if err != nil {
		metrics.RecordWebhook(metrics.WebhookRejected)
		return nil, err
	}

	secret := s.cfg.Razorpay.WebhookSecret
	if signature == "" || secret == "" {
		metrics.RecordWebhook(metrics.WebhookRejected)
		zap.S().Warnw("[Webhook] missing signature or secret", "client", clientID)
		return nil, ErrMissingSignature
	}
	if !gateway.VerifyWebhookSignature(body, signature, secret) {
		metrics.RecordWebhook(metrics.WebhookRejected)
		zap.S().Warnw("[Webhook] signature mismatch", "client", clientID)
		return nil, ErrInvalidSignature
	}

	event, err := gateway.ParseWebhookEvent(body)
	if err != nil {
		metrics.RecordWebhook(metrics.WebhookFailed)
		zap.S().Errorw("[Webhook] unparseable body", "err", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	result := &WebhookResult{RateLimit: rl}
	if !event.IsPaymentSuccess() {
		zap.S().Infow("[Webhook] event ignored", "event", event.Event)
		result.Outcome = metrics.WebhookIgnored
		metrics.RecordWebhook(result.Outcome)
		return result, nil
	}

	paymentID, orderID, userID, scAmount := event.PurchaseDetails()
	result.PaymentID = paymentID
	if userID == "" || scAmount <= 0 || paymentID == "" {
		zap.S().Warnw("[Webhook] payment without credit metadata, skipped",
			"event", event.Event, "paymentID", paymentID, "orderID", orderID, "userID", userID, "scAmount", scAmount)
		result.Outcome = metrics.WebhookSkipped
		metrics.RecordWebhook(result.Outcome)
		return result, nil
	}

	record, err := s.paymentRepo.RecordEvent(ctx, &model.PaymentEvent{
		PaymentID: paymentID,
		EventType: event.Event,
		OrderID:   orderID,
		UserID:    userID,
		SCAmount:  scAmount,
		Status:    model.PaymentEventReceived,
		Payload:   string(body),
	})
	if err != nil {
		// Nothing is stored to retry from, so let the gateway redeliver.
		metrics.RecordWebhook(metrics.WebhookFailed)
		zap.S().Errorw("[Webhook] could not record event", "paymentID", paymentID, "err", err)
		return nil, fmt.Errorf("record payment event: %w", err)
	}

	credit, err := s.ledger.Credit(ctx, CreditRequest{
		UserID:    userID,
		Amount:    scAmount,
		PaymentID: paymentID,
		OrderID:   orderID,
		Source:    model.CreditSourceWebhook,
	})
	if err != nil {
		zap.S().Errorw("[Webhook] credit failed, queued for retry",
			"paymentID", paymentID, "orderID", orderID, "userID", userID, "scAmount", scAmount, "err", err)
		if markErr := s.paymentRepo.MarkEventFailed(ctx, record.ID, err.Error()); markErr != nil {
			zap.S().Errorw("[Webhook] could not mark event failed", "eventID", record.ID, "err", markErr)
		}
		result.Outcome = metrics.WebhookFailed
		metrics.RecordWebhook(result.Outcome)
		return result, nil
	}

	if err := s.paymentRepo.MarkEventCredited(ctx, record.ID); err != nil {
		zap.S().Warnw("[Webhook] could not mark event credited", "eventID", record.ID, "err", err)
	}

	result.Outcome = metrics.WebhookCredited
	if !credit.Applied {
		result.Outcome = metrics.WebhookDuplicate
	}
	metrics.RecordWebhook(result.Outcome)
	return result, nil
}
