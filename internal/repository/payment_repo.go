package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skillswap/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// ClaimCredit inserts the credit marker for a payment. It reports false when
// the payment was already credited; the caller must then leave balances alone.
func (r *PaymentRepository) ClaimCredit(ctx context.Context, tx *gorm.DB, credit *model.PaymentCredit) (bool, error) {
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).
		Create(credit)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PaymentRepository) GetCredit(ctx context.Context, paymentID string) (*model.PaymentCredit, error) {
	var credit model.PaymentCredit
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&credit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &credit, nil
}

// RecordEvent logs a webhook delivery. Redeliveries of the same payment and
// event type return the row stored the first time.
func (r *PaymentRepository) RecordEvent(ctx context.Context, event *model.PaymentEvent) (*model.PaymentEvent, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}, {Name: "event_type"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 1 {
		return event, nil
	}

	var existing model.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("payment_id = ? AND event_type = ?", event.PaymentID, event.EventType).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *PaymentRepository) GetEvent(ctx context.Context, id int64) (*model.PaymentEvent, error) {
	var event model.PaymentEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *PaymentRepository) MarkEventCredited(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&model.PaymentEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.PaymentEventCredited,
			"last_error":   "",
			"processed_at": &now,
		}).Error
}

func (r *PaymentRepository) MarkEventFailed(ctx context.Context, id int64, lastErr string) error {
	return r.db.WithContext(ctx).
		Model(&model.PaymentEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.PaymentEventFailed,
			"last_error": lastErr,
		}).Error
}

func (r *PaymentRepository) IncrementEventRetry(ctx context.Context, id int64, lastErr string) error {
	return r.db.WithContext(ctx).
		Model(&model.PaymentEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  lastErr,
		}).Error
}

// GetRetryableEvents returns FAILED events that still have attempts left, oldest first.
func (r *PaymentRepository) GetRetryableEvents(ctx context.Context, maxRetry, limit int) ([]*model.PaymentEvent, error) {
	var events []*model.PaymentEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", model.PaymentEventFailed, maxRetry).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
