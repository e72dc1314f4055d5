package model

import (
	"time"
)

const (
	SessionStatusPending   = "pending"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// Terminal states have no entry: completed and cancelled never move again.
var ValidSessionTransitions = map[string][]string{
	SessionStatusPending: {SessionStatusCompleted, SessionStatusCancelled},
}

func CanSessionTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidSessionTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Session is a booked skill swap with its escrowed credits.
type Session struct {
	ID             string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	SeekerID       string     `gorm:"type:varchar(64);index;not null" json:"seeker_id"`
	ProviderID     string     `gorm:"type:varchar(64);index;not null" json:"provider_id"`
	SkillID        int64      `gorm:"index;not null" json:"skill_id"`
	SCHeldInEscrow int64      `gorm:"column:sc_held_in_escrow;not null" json:"sc_held_in_escrow"`
	Status         string     `gorm:"type:varchar(20);index;not null" json:"status"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}
