// Package gateway wraps the Razorpay payment gateway: order creation, order
// lookup, webhook event decoding and signature checks.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Gateway is the part of the payment gateway the service calls.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
}

type OrderRequest struct {
	AmountMinor int64 // paise for INR
	Currency    string
	Receipt     string
	Notes       Notes
}

// Order mirrors the gateway's order entity.
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	Notes      Notes  `json:"notes"`
	CreatedAt  int64  `json:"created_at"`
}

// Note keys set at order creation and read back from payments.
const (
	NoteUserID   = "user_id"
	NoteSCAmount = "sc_amount"
)

// Notes is the gateway's free-form metadata. Razorpay sends an empty JSON
// array when there are none and keeps whatever scalar type was submitted, so
// decoding accepts both and stringifies values.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.HasPrefix(trimmed, []byte("[")) {
		*n = Notes{}
		return nil
	}

	raw := map[string]interface{}{}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode notes: %w", err)
	}

	out := make(Notes, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		case nil:
		default:
			b, _ := json.Marshal(val)
			out[k] = string(b)
		}
	}
	*n = out
	return nil
}

// Int parses a numeric note. Missing or malformed values read as 0, the same
// way a blank sc_amount is treated as nothing to credit.
func (n Notes) Int(key string) int64 {
	v, ok := n[key]
	if !ok {
		return 0
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return i
}

// ============================================================================
// Webhook events
// ============================================================================

const (
	EventOrderPaid       = "order.paid"
	EventPaymentCaptured = "payment.captured"
)

type WebhookEvent struct {
	Entity    string       `json:"entity"`
	AccountID string       `json:"account_id"`
	Event     string       `json:"event"`
	Contains  []string     `json:"contains"`
	Payload   EventPayload `json:"payload"`
	CreatedAt int64        `json:"created_at"`
}

type EventPayload struct {
	Payment *PaymentWrapper `json:"payment,omitempty"`
	Order   *OrderWrapper   `json:"order,omitempty"`
}

type PaymentWrapper struct {
	Entity Payment `json:"entity"`
}

type OrderWrapper struct {
	Entity Order `json:"entity"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
	Notes    Notes  `json:"notes"`
}

func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &ev, nil
}

// IsPaymentSuccess reports whether the event means money was received.
func (e *WebhookEvent) IsPaymentSuccess() bool {
	return e.Event == EventOrderPaid || e.Event == EventPaymentCaptured
}

// PurchaseDetails pulls what a credit needs from the event. Payment notes are
// preferred and order notes fill the gaps; the payment id is the idempotency
// key, falling back to the order id when no payment entity came along.
func (e *WebhookEvent) PurchaseDetails() (paymentID, orderID, userID string, scAmount int64) {
	notes := Notes{}
	if o := e.Payload.Order; o != nil {
		orderID = o.Entity.ID
		for k, v := range o.Entity.Notes {
			notes[k] = v
		}
	}
	if p := e.Payload.Payment; p != nil {
		paymentID = p.Entity.ID
		if p.Entity.OrderID != "" {
			orderID = p.Entity.OrderID
		}
		for k, v := range p.Entity.Notes {
			notes[k] = v
		}
	}
	if paymentID == "" {
		paymentID = orderID
	}
	return paymentID, orderID, notes[NoteUserID], notes.Int(NoteSCAmount)
}
