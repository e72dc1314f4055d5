// Package purchase drives a credit purchase from the buyer's side: open an
// order, hand it to the checkout widget, confirm the result with the service.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"skillswap/internal/infrastructure/gateway"
)

type State string

const (
	StateIdle           State = "idle"
	StateOrderRequested State = "order_requested"
	StateGatewayOpen    State = "gateway_open"
	StatePaymentResult  State = "payment_result"
)

var ErrBusy = errors.New("a purchase is already in progress")

// CheckoutResult is what the widget hands back after a successful payment.
type CheckoutResult struct {
	OrderID   string
	PaymentID string
	Signature string
}

// CheckoutError is a payment the gateway declined or the buyer abandoned.
type CheckoutError struct {
	Code        string
	Description string
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout %s: %s", e.Code, e.Description)
}

// Checkout is the gateway's payment widget.
type Checkout interface {
	Open(ctx context.Context, order *gateway.Order) (*CheckoutResult, error)
}

// API is the part of the service the orchestrator needs. *APIClient implements it.
type API interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*gateway.Order, error)
	Confirm(ctx context.Context, res *CheckoutResult) (*Confirmation, error)
	Balance(ctx context.Context, userID string) (*Balance, error)
}

// Result describes a finished purchase attempt. Failure holds the gateway's
// description when the payment did not go through.
type Result struct {
	Success      bool
	OrderID      string
	PaymentID    string
	Failure      string
	Confirmation *Confirmation
	Balance      *Balance
}

// Orchestrator runs one purchase at a time for a single user.
type Orchestrator struct {
	api      API
	checkout Checkout
	userID   string
	onChange func(from, to State)

	mu    sync.Mutex
	state State
}

type Option func(*Orchestrator)

// WithTransitionHook registers fn to observe every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(o *Orchestrator) { o.onChange = fn }
}

func NewOrchestrator(api API, checkout Checkout, userID string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:      api,
		checkout: checkout,
		userID:   userID,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Buy purchases the pack at index pack. A declined payment is not an error:
// it comes back as a Result with Failure set and nothing credited. The
// orchestrator is idle again when Buy returns.
func (o *Orchestrator) Buy(ctx context.Context, pack int) (*Result, error) {
	if !o.begin() {
		return nil, ErrBusy
	}
	defer o.transition(StateIdle)

	order, err := o.api.CreateOrder(ctx, OrderRequest{Pack: pack})
	if err != nil {
		zap.S().Warnw("[Purchase] order request failed", "userID", o.userID, "pack", pack, "err", err)
		return nil, err
	}

	o.transition(StateGatewayOpen)
	paid, err := o.checkout.Open(ctx, order)
	o.transition(StatePaymentResult)

	result := &Result{OrderID: order.ID}
	if err != nil {
		var declined *CheckoutError
		if errors.As(err, &declined) {
			zap.S().Infow("[Purchase] payment failed", "orderID", order.ID, "code", declined.Code, "reason", declined.Description)
			result.Failure = declined.Description
			return result, nil
		}
		return nil, fmt.Errorf("checkout: %w", err)
	}

	result.PaymentID = paid.PaymentID
	confirmation, err := o.api.Confirm(ctx, paid)
	if err != nil {
		// The webhook still credits this payment; the caller can refresh later.
		zap.S().Errorw("[Purchase] confirmation failed", "orderID", order.ID, "paymentID", paid.PaymentID, "err", err)
		return nil, fmt.Errorf("confirm payment %s: %w", paid.PaymentID, err)
	}
	result.Success = true
	result.Confirmation = confirmation

	balance, err := o.api.Balance(ctx, o.userID)
	if err != nil {
		zap.S().Warnw("[Purchase] balance refresh failed", "userID", o.userID, "err", err)
		return result, nil
	}
	result.Balance = balance
	return result, nil
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return false
	}
	o.state = StateOrderRequested
	o.mu.Unlock()

	o.notify(StateIdle, StateOrderRequested)
	return true
}

func (o *Orchestrator) transition(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()

	o.notify(from, to)
}

func (o *Orchestrator) notify(from, to State) {
	if o.onChange != nil {
		o.onChange(from, to)
	}
}
