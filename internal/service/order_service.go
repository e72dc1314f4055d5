package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/infrastructure/gateway"
	"skillswap/internal/model"
	"skillswap/internal/ratelimit"
	"skillswap/pkg/idgen"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// OrderService opens gateway orders for credit purchases.
type OrderService struct {
	gateway gateway.Gateway
	limiter ratelimit.Limiter
	cfg     *config.Config
}

func NewOrderService(gw gateway.Gateway, limiter ratelimit.Limiter, cfg *config.Config) *OrderService {
	return &OrderService{
		gateway: gw,
		limiter: limiter,
		cfg:     cfg,
	}
}

// CreateOrderRequest is the order endpoint body. Amount is in major units
// (rupees) and may arrive as a JSON number or string. Pack, when set, selects
// a catalogue entry and overrides Amount and SCAmount.
type CreateOrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	UserID   string          `json:"user_id"`
	SCAmount int64           `json:"sc_amount"`
	Pack     *int            `json:"pack"`
}

// CreateOrderResult carries the gateway order and the caller's window state.
type CreateOrderResult struct {
	Order     *gateway.Order
	RateLimit ratelimit.Result
}

func (s *OrderService) Packs() []model.CreditPack {
	return model.CreditPacks
}

// CreateOrder opens an order for clientID. authUserID is the token subject, or
// empty for an anonymous caller.
func (s *OrderService) CreateOrder(ctx context.Context, clientID, authUserID string, req CreateOrderRequest) (*CreateOrderResult, error) {
	rl, err := checkRateLimit(ctx, s.limiter, ScopeOrder, clientID, s.cfg.RateLimit.Order)
	if err != nil {
		return nil, err
	}

	if req.Pack != nil {
		if *req.Pack < 0 || *req.Pack >= len(model.CreditPacks) {
			return nil, ErrInvalidPack
		}
		pack := model.CreditPacks[*req.Pack]
		req.Amount = decimal.NewFromInt(pack.Price)
		req.SCAmount = pack.SC
	}

	minor := req.Amount.Mul(minorUnitsPerMajor)
	if minor.Sign() <= 0 || !minor.Equal(minor.Truncate(0)) {
		return nil, ErrInvalidAmount
	}
	if req.SCAmount < 0 {
		return nil, ErrInvalidSCAmount
	}

	userID := req.UserID
	if authUserID != "" {
		if userID != "" && userID != authUserID {
			return nil, ErrForbidden
		}
		userID = authUserID
	}

	notes := gateway.Notes{}
	if userID != "" {
		notes[gateway.NoteUserID] = userID
	}
	if req.SCAmount > 0 {
		notes[gateway.NoteSCAmount] = strconv.FormatInt(req.SCAmount, 10)
	}

	orderReq := gateway.OrderRequest{
		AmountMinor: minor.IntPart(),
		Currency:    s.cfg.Razorpay.Currency,
		Receipt:     idgen.GenerateReceiptNo(),
		Notes:       notes,
	}

	order, err := s.gateway.CreateOrder(ctx, orderReq)
	if err != nil {
		zap.S().Errorw("[Order] gateway order creation failed",
			"receipt", orderReq.Receipt, "amount", orderReq.AmountMinor, "userID", userID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
	}

	zap.S().Infow("[Order] order created",
		"orderID", order.ID, "receipt", orderReq.Receipt, "amount", orderReq.AmountMinor,
		"userID", userID, "scAmount", req.SCAmount)
	return &CreateOrderResult{Order: order, RateLimit: rl}, nil
}
