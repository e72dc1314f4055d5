package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/infrastructure/gateway"
	"skillswap/internal/model"
)

// CheckoutService confirms payments reported by the checkout widget. The
// widget's word is not trusted: the signature proves the payment belongs to
// the order and the credit metadata is re-read from the gateway.
type CheckoutService struct {
	gateway gateway.Gateway
	ledger  *LedgerService
	cfg     *config.Config
}

func NewCheckoutService(gw gateway.Gateway, ledger *LedgerService, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		gateway: gw,
		ledger:  ledger,
		cfg:     cfg,
	}
}

type ConfirmRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

type ConfirmResult struct {
	UserID   string `json:"user_id"`
	SCAmount int64  `json:"sc_amount"`
	CreditResult
}

// Confirm credits the order's user for a successful checkout. authUserID, when
// set, must own the order.
func (s *CheckoutService) Confirm(ctx context.Context, authUserID string, req ConfirmRequest) (*ConfirmResult, error) {
	if !gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature, s.cfg.Razorpay.KeySecret) {
		zap.S().Warnw("[Checkout] payment signature mismatch", "orderID", req.OrderID, "paymentID", req.PaymentID)
		return nil, ErrInvalidSignature
	}

	order, err := s.gateway.FetchOrder(ctx, req.OrderID)
	if err != nil {
		zap.S().Errorw("[Checkout] order lookup failed", "orderID", req.OrderID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayLookup, err)
	}

	userID := order.Notes[gateway.NoteUserID]
	scAmount := order.Notes.Int(gateway.NoteSCAmount)
	if userID == "" || scAmount <= 0 {
		zap.S().Warnw("[Checkout] order without credit metadata", "orderID", req.OrderID)
		return nil, ErrNothingToCredit
	}
	if authUserID != "" && authUserID != userID {
		return nil, ErrForbidden
	}

	credit, err := s.ledger.Credit(ctx, CreditRequest{
		UserID:    userID,
		Amount:    scAmount,
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Source:    model.CreditSourceCheckout,
	})
	if err != nil {
		return nil, err
	}

	return &ConfirmResult{UserID: userID, SCAmount: scAmount, CreditResult: *credit}, nil
}
