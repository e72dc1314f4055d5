package model

import (
	"time"
)

// Credit sources.
const (
	CreditSourceWebhook  = "webhook"
	CreditSourceCheckout = "checkout"
	CreditSourceRetry    = "retry"
)

// PaymentCredit records that a gateway payment has been credited. The unique
// PaymentID makes a second credit for the same payment a no-op; the row is
// written in the same transaction as the balance change.
type PaymentCredit struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_id"`
	OrderID   string    `gorm:"type:varchar(64);index" json:"order_id"`
	UserID    string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	SCAmount  int64     `gorm:"column:sc_amount;not null" json:"sc_amount"`
	Source    string    `gorm:"type:varchar(16);not null" json:"source"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PaymentCredit) TableName() string {
	return "payment_credits"
}

const (
	PaymentEventReceived = "RECEIVED"
	PaymentEventCredited = "CREDITED"
	PaymentEventFailed   = "FAILED"
)

// PaymentEvent is the webhook log. A FAILED event is retried by the payment
// retry job until it is credited or runs out of attempts.
type PaymentEvent struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID   string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_payment_events_payment_event,priority:1" json:"payment_id"`
	EventType   string     `gorm:"type:varchar(64);not null;uniqueIndex:ux_payment_events_payment_event,priority:2" json:"event_type"`
	OrderID     string     `gorm:"type:varchar(64);index" json:"order_id"`
	UserID      string     `gorm:"type:varchar(64)" json:"user_id"`
	SCAmount    int64      `gorm:"column:sc_amount" json:"sc_amount"`
	Status      string     `gorm:"type:varchar(20);index;not null" json:"status"`
	RetryCount  int        `gorm:"not null;default:0" json:"retry_count"`
	LastError   string     `gorm:"type:text" json:"last_error"`
	Payload     string     `gorm:"type:text" json:"-"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}
