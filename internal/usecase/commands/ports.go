package commands

import (
	"context"
	"time"
)

// PaymentGateway is the external payment service. Implementations bound every call
// with a timeout and never retry on their own.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error)
	// FetchOrder reads an order back, including the notes it was opened with.
	FetchOrder(ctx context.Context, orderID string) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
	Refund(ctx context.Context, paymentID string, req RefundRequest) (*GatewayRefund, error)
	// VerifySignature checks the HMAC-SHA256 of "orderID|paymentID" against signature.
	VerifySignature(orderID, paymentID, signature string) bool
}

// Amounts sent to and received from the gateway are minor currency units.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
	Notes    map[string]string
}

type GatewayPayment struct {
	ID        string
	OrderID   string
	Amount    int64
	Currency  string
	Method    string
	Status    string
	Captured  bool
	CreatedAt time.Time
}

type RefundRequest struct {
	Amount  int64
	Receipt string
	Notes   map[string]string
}

type GatewayRefund struct {
	ID          string
	PaymentID   string
	Amount      int64
	Currency    string
	Status      string
	Receipt     *string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Locker provides mutual exclusion keyed by an arbitrary string, such as a property id.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned release
	// func must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func propertyLockKey(id string) string {
	return "lock:property:" + id
}

func bookingLockKey(id string) string {
	return "lock:booking:" + id
}
