//go:build unit || e2e

// Package gatewaytest provides an in-memory payment gateway that signs and settles
// payments the way the real provider does.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"villa-booking/internal/infra/gateway"
	"villa-booking/internal/usecase/commands"
)

const Secret = "fake_gateway_secret"

type call struct {
	Op        string
	PaymentID string
	Amount    int64
}

// Fake implements commands.PaymentGateway.
type Fake struct {
	mu       sync.Mutex
	seq      int
	orders   map[string]commands.GatewayOrder
	payments map[string]commands.GatewayPayment
	calls    []call

	// The *Err fields fail the matching call when set.
	OrderErr  error
	FetchErr  error
	RefundErr error
	// RefundStatus is reported for new refunds; defaults to processed.
	RefundStatus string
	Now          func() time.Time
}

func New() *Fake {
	return &Fake{
		orders:   map[string]commands.GatewayOrder{},
		payments: map[string]commands.GatewayPayment{},
		Now:      func() time.Time { return time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC) },
	}
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%06d", prefix, f.seq)
}

func (f *Fake) CreateOrder(_ context.Context, req commands.OrderRequest) (*commands.GatewayOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Op: "create_order", Amount: req.Amount})
	if f.OrderErr != nil {
		return nil, f.OrderErr
	}
	o := f.openOrder(req)
	return &o, nil
}

// OpenOrder registers an order as if it had been created through the API and
// returns its id.
func (f *Fake) OpenOrder(req commands.OrderRequest) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openOrder(req).ID
}

func (f *Fake) openOrder(req commands.OrderRequest) commands.GatewayOrder {
	notes := make(map[string]string, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	o := commands.GatewayOrder{
		ID:       f.nextID("order"),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    notes,
	}
	f.orders[o.ID] = o
	return o
}

func (f *Fake) FetchOrder(_ context.Context, orderID string) (*commands.GatewayOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Op: "fetch_order"})
	o, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	return &o, nil
}

// Pay settles a payment against an order and returns the checkout proof.
func (f *Fake) Pay(orderID string, amount int64) (paymentID, signature string) {
	return f.PayWithStatus(orderID, amount, "captured")
}

func (f *Fake) PayWithStatus(orderID string, amount int64, status string) (paymentID, signature string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	paymentID = f.nextID("pay")
	f.payments[paymentID] = commands.GatewayPayment{
		ID:        paymentID,
		OrderID:   orderID,
		Amount:    amount,
		Currency:  "INR",
		Method:    "upi",
		Status:    status,
		Captured:  status == "captured",
		CreatedAt: f.Now(),
	}
	return paymentID, gateway.Sign(Secret, orderID, paymentID)
}

func (f *Fake) FetchPayment(_ context.Context, paymentID string) (*commands.GatewayPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Op: "fetch_payment", PaymentID: paymentID})
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	return &p, nil
}

func (f *Fake) Refund(_ context.Context, paymentID string, req commands.RefundRequest) (*commands.GatewayRefund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Op: "refund", PaymentID: paymentID, Amount: req.Amount})
	if f.RefundErr != nil {
		return nil, f.RefundErr
	}
	status := f.RefundStatus
	if status == "" {
		status = "processed"
	}
	now := f.Now()
	receipt := req.Receipt
	return &commands.GatewayRefund{
		ID:          f.nextID("rfnd"),
		PaymentID:   paymentID,
		Amount:      req.Amount,
		Currency:    "INR",
		Status:      status,
		Receipt:     &receipt,
		CreatedAt:   now,
		ProcessedAt: &now,
	}, nil
}

func (f *Fake) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.Sign(Secret, orderID, paymentID) == signature
}

// Calls counts calls of one operation.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LastRefundAmount is the amount of the most recent refund call.
func (f *Fake) LastRefundAmount() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Op == "refund" {
			return f.calls[i].Amount
		}
	}
	return 0
}

var _ commands.PaymentGateway = (*Fake)(nil)
