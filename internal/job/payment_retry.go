package job

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillswap/internal/config"
	"skillswap/internal/model"
	"skillswap/internal/repository"
	"skillswap/internal/service"
)

// PaymentRetryJob re-applies webhook credits that failed. The ledger's
// per-payment claim keeps a retry from crediting twice if another path got
// there in the meantime.
type PaymentRetryJob struct {
	paymentRepo *repository.PaymentRepository
	ledger      *service.LedgerService
	cfg         *config.Config
	stopCh      chan struct{}
	interval    time.Duration
	batchSize   int
}

func NewPaymentRetryJob(db *gorm.DB, ledger *service.LedgerService, cfg *config.Config) *PaymentRetryJob {
	interval := time.Duration(cfg.Business.RetryIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PaymentRetryJob{
		paymentRepo: repository.NewPaymentRepository(db),
		ledger:      ledger,
		cfg:         cfg,
		stopCh:      make(chan struct{}),
		interval:    interval,
		batchSize:   50,
	}
}

func (j *PaymentRetryJob) Start(ctx context.Context) {
	zap.S().Info("[PaymentRetryJob] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("[PaymentRetryJob] context done, exiting")
			return
		case <-j.stopCh:
			zap.S().Info("[PaymentRetryJob] stopped")
			return
		case <-ticker.C:
			j.retryFailedCredits(ctx)
		}
	}
}

func (j *PaymentRetryJob) Stop() {
	close(j.stopCh)
}

func (j *PaymentRetryJob) retryFailedCredits(ctx context.Context) {
	events, err := j.paymentRepo.GetRetryableEvents(ctx, j.cfg.Business.MaxRetryCount, j.batchSize)
	if err != nil {
		zap.S().Errorw("[PaymentRetryJob] load failed events", "err", err)
		return
	}

	if len(events) == 0 {
		return
	}

	zap.S().Infow("[PaymentRetryJob] retrying failed credits", "count", len(events))

	for _, event := range events {
		j.retry(ctx, event)
	}
}

func (j *PaymentRetryJob) retry(ctx context.Context, event *model.PaymentEvent) {
	res, err := j.ledger.Credit(ctx, service.CreditRequest{
		UserID:    event.UserID,
		Amount:    event.SCAmount,
		PaymentID: event.PaymentID,
		OrderID:   event.OrderID,
		Source:    model.CreditSourceRetry,
	})
	if err != nil {
		zap.S().Warnw("[PaymentRetryJob] retry failed",
			"paymentID", event.PaymentID, "attempt", event.RetryCount+1, "err", err)
		if err := j.paymentRepo.IncrementEventRetry(ctx, event.ID, err.Error()); err != nil {
			zap.S().Errorw("[PaymentRetryJob] increment retry count", "eventID", event.ID, "err", err)
		}
		if event.RetryCount+1 >= j.cfg.Business.MaxRetryCount {
			zap.S().Errorw("[PaymentRetryJob] retries exhausted, manual reconciliation needed",
				"paymentID", event.PaymentID, "orderID", event.OrderID, "userID", event.UserID, "scAmount", event.SCAmount)
		}
		return
	}

	if err := j.paymentRepo.MarkEventCredited(ctx, event.ID); err != nil {
		zap.S().Errorw("[PaymentRetryJob] mark credited", "eventID", event.ID, "err", err)
		return
	}
	zap.S().Infow("[PaymentRetryJob] credit recovered",
		"paymentID", event.PaymentID, "applied", res.Applied, "balance", res.BalanceAfter)
}
