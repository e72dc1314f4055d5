package job

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillswap/internal/config"
	"skillswap/internal/infrastructure/mq"
	"skillswap/internal/metrics"
	"skillswap/internal/model"
	"skillswap/internal/repository"
)

// OutboxSender relays ledger events from the outbox table to the broker.
// Events sharing a key (a user id) go out in commit order: once one fails, the
// rest of that key's batch waits for the next tick.
type OutboxSender struct {
	outboxRepo  *repository.OutboxRepository
	publisher   mq.Publisher
	maxAttempts int
	interval    time.Duration
	batchSize   int
	stopCh      chan struct{}
}

func NewOutboxSender(db *gorm.DB, publisher mq.Publisher, cfg *config.Config) *OutboxSender {
	interval := time.Duration(cfg.Business.OutboxIntervalMillis) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	maxAttempts := cfg.Business.MaxRetryCount
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &OutboxSender{
		outboxRepo:  repository.NewOutboxRepository(db),
		publisher:   publisher,
		maxAttempts: maxAttempts,
		interval:    interval,
		batchSize:   100,
		stopCh:      make(chan struct{}),
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	zap.S().Infow("[OutboxSender] started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.S().Info("[OutboxSender] context done, exiting")
			return
		case <-s.stopCh:
			zap.S().Info("[OutboxSender] stopped")
			return
		case <-ticker.C:
			s.flush(ctx)
			s.reportBacklog(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

// flush publishes one batch and returns how many events went out.
func (s *OutboxSender) flush(ctx context.Context) int {
	messages, err := s.outboxRepo.ListPending(ctx, s.batchSize)
	if err != nil {
		zap.S().Errorw("[OutboxSender] load pending events", "err", err)
		return 0
	}

	sent := 0
	blocked := make(map[string]bool)
	for _, msg := range messages {
		if blocked[msg.MessageKey] {
			continue
		}
		if s.publish(ctx, msg) {
			sent++
			continue
		}
		blocked[msg.MessageKey] = true
	}
	return sent
}

func (s *OutboxSender) publish(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.publisher.Publish(ctx, msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if ok, markErr := s.outboxRepo.MarkSent(ctx, msg.ID); markErr != nil {
			// Published but still pending: the event will be delivered again.
			zap.S().Errorw("[OutboxSender] mark sent", "id", msg.ID, "err", markErr)
		} else if !ok {
			zap.S().Warnw("[OutboxSender] event already settled by another sender", "id", msg.ID)
		}
		return true
	}

	zap.S().Warnw("[OutboxSender] publish failed", "id", msg.ID, "key", msg.MessageKey, "attempt", msg.RetryCount+1, "err", err)

	status, recordErr := s.outboxRepo.RecordPublishFailure(ctx, msg, s.maxAttempts)
	switch {
	case recordErr != nil:
		zap.S().Errorw("[OutboxSender] record failure", "id", msg.ID, "err", recordErr)
	case status == model.OutboxStatusFailed:
		zap.S().Errorw("[OutboxSender] attempts exhausted, event parked as failed", "id", msg.ID, "key", msg.MessageKey)
	}
	return false
}

func (s *OutboxSender) reportBacklog(ctx context.Context) {
	counts, err := s.outboxRepo.CountByStatus(ctx)
	if err != nil {
		zap.S().Warnw("[OutboxSender] count backlog", "err", err)
		return
	}
	metrics.SetOutboxBacklog(counts)
}
