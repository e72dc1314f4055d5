package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"skillswap/internal/model"
)

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrInvalidTransition     = errors.New("invalid session status transition")
	ErrSessionStatusConflict = errors.New("session status changed concurrently")
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, tx *gorm.DB, session *model.Session) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*model.Session, error) {
	if tx == nil {
		tx = r.db
	}
	var session model.Session
	err := tx.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// UpdateStatus moves a session from fromStatus to toStatus only if it is still
// in fromStatus. A lost race surfaces as ErrSessionStatusConflict.
func (r *SessionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, fromStatus, toStatus string) error {
	if !model.CanSessionTransitionTo(fromStatus, toStatus) {
		return ErrInvalidTransition
	}

	if tx == nil {
		tx = r.db
	}

	updates := map[string]interface{}{
		"status": toStatus,
	}
	if toStatus == model.SessionStatusCompleted {
		updates["completed_at"] = time.Now().UTC()
	}

	result := tx.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSessionStatusConflict
	}

	return nil
}

// ListByUser returns sessions where the user is seeker or provider, newest
// first. An empty status matches every status.
func (r *SessionRepository) ListByUser(ctx context.Context, userID, status string) ([]*model.Session, error) {
	var sessions []*model.Session
	query := r.db.WithContext(ctx).Where("seeker_id = ? OR provider_id = ?", userID, userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}
