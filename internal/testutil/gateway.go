package testutil

import (
	"context"
	"fmt"
	"sync"

	"skillswap/internal/infrastructure/gateway"
)

// FakeGateway records order requests and serves orders from memory.
type FakeGateway struct {
	mu       sync.Mutex
	Requests []gateway.OrderRequest
	Orders   map[string]*gateway.Order
	// NextID names the next created order; defaults to order_<n>.
	NextID    string
	CreateErr error
	FetchErr  error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{Orders: map[string]*gateway.Order{}}
}

func (f *FakeGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}

	id := f.NextID
	if id == "" {
		id = fmt.Sprintf("order_%d", len(f.Requests))
	}
	f.NextID = ""

	notes := gateway.Notes{}
	for k, v := range req.Notes {
		notes[k] = v
	}
	order := &gateway.Order{
		ID:        id,
		Entity:    "order",
		Amount:    req.AmountMinor,
		AmountDue: req.AmountMinor,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
		Notes:     notes,
	}
	f.Orders[id] = order
	return order, nil
}

func (f *FakeGateway) FetchOrder(_ context.Context, orderID string) (*gateway.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	order, ok := f.Orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	return order, nil
}

// AddOrder registers an order as if it had been created earlier.
func (f *FakeGateway) AddOrder(order *gateway.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Orders[order.ID] = order
}
