package repository

import (
	"context"

	"gorm.io/gorm"

	"skillswap/internal/model"
)

// OutboxRepository stores ledger events until the sender has published them.
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Append must run in the transaction that makes the change the event announces.
func (r *OutboxRepository) Append(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error {
	if tx == nil {
		tx = r.db
	}
	if msg.Status == "" {
		msg.Status = model.OutboxStatusPending
	}
	return tx.WithContext(ctx).Create(msg).Error
}

// ListPending returns unsent events in commit order.
func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]*model.OutboxMessage, error) {
	var messages []*model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// MarkSent reports false when the row was no longer pending.
func (r *OutboxRepository) MarkSent(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ? AND status = ?", id, model.OutboxStatusPending).
		Update("status", model.OutboxStatusSent)
	return result.RowsAffected == 1, result.Error
}

// RecordPublishFailure counts a failed attempt on msg and parks it as failed
// once maxAttempts is reached. The update is keyed on the retry count msg was
// read with, so two senders never count the same attempt twice. It returns the
// status the row now has.
func (r *OutboxRepository) RecordPublishFailure(ctx context.Context, msg *model.OutboxMessage, maxAttempts int) (string, error) {
	status := model.OutboxStatusPending
	if msg.RetryCount+1 >= maxAttempts {
		status = model.OutboxStatusFailed
	}

	result := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Where("id = ? AND status = ? AND retry_count = ?", msg.ID, model.OutboxStatusPending, msg.RetryCount).
		Updates(map[string]interface{}{
			"status":      status,
			"retry_count": gorm.Expr("retry_count + 1"),
		})
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", gorm.ErrRecordNotFound
	}

	msg.RetryCount++
	msg.Status = status
	return status, nil
}

// CountByStatus returns the number of rows per status.
func (r *OutboxRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.OutboxMessage{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		model.OutboxStatusPending: 0,
		model.OutboxStatusSent:    0,
		model.OutboxStatusFailed:  0,
	}
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}
