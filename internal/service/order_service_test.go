package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/infrastructure/gateway"
	"skillswap/internal/ratelimit"
	"skillswap/internal/testutil"
)

func TestOrderService_ConvertsToMinorUnits(t *testing.T) {
	gw := testutil.NewFakeGateway()
	gw.NextID = "order_abc"
	svc := NewOrderService(gw, ratelimit.NewMemoryLimiter(0), testConfig())

	res, err := svc.CreateOrder(context.Background(), "1.2.3.4", "", CreateOrderRequest{
		Amount:   decimal.NewFromInt(500),
		UserID:   "u1",
		SCAmount: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", res.Order.ID)
	assert.Equal(t, int64(50000), res.Order.Amount)
	assert.Equal(t, "INR", res.Order.Currency)
	assert.Equal(t, 4, res.RateLimit.Remaining)

	require.Len(t, gw.Requests, 1)
	req := gw.Requests[0]
	assert.Equal(t, int64(50000), req.AmountMinor)
	assert.True(t, strings.HasPrefix(req.Receipt, "rcpt_"))
	assert.Equal(t, gateway.Notes{"user_id": "u1", "sc_amount": "50"}, req.Notes)
}

func TestOrderService_DecimalAmounts(t *testing.T) {
	gw := testutil.NewFakeGateway()
	svc := NewOrderService(gw, ratelimit.NewMemoryLimiter(0), testConfig())
	ctx := context.Background()

	var body CreateOrderRequest
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"199.99","sc_amount":20}`), &body))
	res, err := svc.CreateOrder(ctx, "c1", "", body)
	require.NoError(t, err)
	assert.Equal(t, int64(19999), res.Order.Amount)

	for _, raw := range []string{`{"amount":0}`, `{"amount":-5}`, `{"amount":"1.005"}`, `{}`} {
		var req CreateOrderRequest
		require.NoError(t, json.Unmarshal([]byte(raw), &req))
		_, err := svc.CreateOrder(ctx, "c2", "", req)
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}

	_, err = svc.CreateOrder(ctx, "c3", "", CreateOrderRequest{Amount: decimal.NewFromInt(10), SCAmount: -1})
	assert.ErrorIs(t, err, ErrInvalidSCAmount)
}

func TestOrderService_RateLimitsPerClient(t *testing.T) {
	gw := testutil.NewFakeGateway()
	svc := NewOrderService(gw, ratelimit.NewMemoryLimiter(0), testConfig())
	ctx := context.Background()
	req := CreateOrderRequest{Amount: decimal.NewFromInt(100)}

	for i := 0; i < 5; i++ {
		_, err := svc.CreateOrder(ctx, "9.9.9.9", "", req)
		require.NoError(t, err)
	}

	_, err := svc.CreateOrder(ctx, "9.9.9.9", "", req)
	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, ScopeOrder, rlErr.Scope)
	assert.False(t, rlErr.Result.Success)
	assert.Zero(t, rlErr.Result.Remaining)
	assert.Len(t, gw.Requests, 5)

	_, err = svc.CreateOrder(ctx, "8.8.8.8", "", req)
	assert.NoError(t, err)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis: connection refused")
}

func TestOrderService_LimiterOutageFailsOpen(t *testing.T) {
	gw := testutil.NewFakeGateway()
	svc := NewOrderService(gw, brokenLimiter{}, testConfig())

	_, err := svc.CreateOrder(context.Background(), "c1", "", CreateOrderRequest{Amount: decimal.NewFromInt(100)})
	assert.NoError(t, err)
}

func TestOrderService_AuthenticatedUser(t *testing.T) {
	gw := testutil.NewFakeGateway()
	svc := NewOrderService(gw, ratelimit.NewMemoryLimiter(0), testConfig())
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, "c1", "u1", CreateOrderRequest{Amount: decimal.NewFromInt(100), UserID: "u2"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateOrder(ctx, "c1", "u1", CreateOrderRequest{Amount: decimal.NewFromInt(100), SCAmount: 10})
	require.NoError(t, err)
	assert.Equal(t, "u1", gw.Requests[len(gw.Requests)-1].Notes[gateway.NoteUserID])
}

func TestOrderService_Packs(t *testing.T) {
	gw := testutil.NewFakeGateway()
	svc := NewOrderService(gw, ratelimit.NewMemoryLimiter(0), testConfig())
	ctx := context.Background()

	assert.Len(t, svc.Packs(), 3)

	pack := 1
	res, err := svc.CreateOrder(ctx, "c1", "u1", CreateOrderRequest{Pack: &pack})
	require.NoError(t, err)
	assert.Equal(t, int64(120000), res.Order.Amount)
	assert.Equal(t, "150", res.Order.Notes[gateway.NoteSCAmount])

	bad := 7
	_, err = svc.CreateOrder(ctx, "c1", "u1", CreateOrderRequest{Pack: &bad})
	assert.ErrorIs(t, err, ErrInvalidPack)
}

func TestOrderService_GatewayFailureIsGeneric(t *testing.T) {
	gw := testutil.NewFakeGateway()
	gw.CreateErr = errors.New("BAD_REQUEST_ERROR: The api key provided is invalid")
	svc := NewOrderService(gw, ratelimit.NewMemoryLimiter(0), testConfig())

	_, err := svc.CreateOrder(context.Background(), "c1", "", CreateOrderRequest{Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, ErrOrderCreateFailed)
}
