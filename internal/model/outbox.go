package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// Ledger event names carried in outbox payloads.
const (
	LedgerEventCredited       = "credits.purchased"
	LedgerEventEscrowHeld     = "escrow.held"
	LedgerEventEscrowReleased = "escrow.released"
	LedgerEventEscrowRefunded = "escrow.refunded"
)

// OutboxMessage is written in the same transaction as the ledger change it
// announces and published to Kafka afterwards.
type OutboxMessage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string    `gorm:"type:varchar(64);not null" json:"message_key"`
	Topic      string    `gorm:"type:varchar(64);not null" json:"topic"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retry_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}

// All lists every table AutoMigrate manages.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Transaction{},
		&Session{},
		&Review{},
		&Skill{},
		&PaymentCredit{},
		&PaymentEvent{},
		&OutboxMessage{},
	}
}
