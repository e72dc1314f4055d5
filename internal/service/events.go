package service

import (
	"encoding/json"
	"time"

	"skillswap/internal/model"
)

// LedgerEvent is the outbox payload published for every balance change.
type LedgerEvent struct {
	Event         string `json:"event"`
	UserID        string `json:"user_id"`
	CounterpartID string `json:"counterpart_id,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	PaymentID     string `json:"payment_id,omitempty"`
	OrderID       string `json:"order_id,omitempty"`
	Amount        int64  `json:"amount"`
	BalanceAfter  int64  `json:"balance_after"`
	TransactionNo string `json:"transaction_no"`
	OccurredAt    string `json:"occurred_at"`
}

func newOutboxMessage(topic, key string, ev LedgerEvent) (*model.OutboxMessage, error) {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &model.OutboxMessage{
		MessageKey: key,
		Topic:      topic,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}, nil
}
