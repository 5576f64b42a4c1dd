package refund

import (
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus      = errs.Define("invalid refund status", errs.ErrValidation)
	ErrMissingGatewayData = errs.Define("refund requires gateway refund and payment ids", errs.ErrValidation)
	ErrZeroRefund         = errs.Define("refund amount must be positive", errs.ErrValidation)
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusFailed:
		return true
	default:
		return false
	}
}

// ParseGatewayStatus maps the gateway's refund status. Unknown values are pending.
func ParseGatewayStatus(s string) Status {
	st := Status(s)
	if st.IsValid() {
		return st
	}
	return StatusPending
}

// Refund records a gateway refund. It is written once and never updated.
type Refund struct {
	id              uuid.UUID
	bookingID       uuid.UUID
	propertyID      uuid.UUID
	userID          uuid.UUID
	gatewayRefundID string
	paymentID       string
	amount          booking.Money
	currency        string
	status          Status
	notes           map[string]string
	referenceID     *string
	createdAt       time.Time
	processedAt     *time.Time
}

type Params struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	PropertyID      uuid.UUID
	UserID          uuid.UUID
	GatewayRefundID string
	PaymentID       string
	Amount          booking.Money
	Currency        string
	Status          Status
	Notes           map[string]string
	ReferenceID     *string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}

func New(p Params) (*Refund, error) {
	if p.GatewayRefundID == "" || p.PaymentID == "" {
		return nil, ErrMissingGatewayData
	}
	if p.Amount.IsZero() {
		return nil, ErrZeroRefund
	}
	if !p.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	notes := make(map[string]string, len(p.Notes))
	for k, v := range p.Notes {
		notes[k] = v
	}
	return &Refund{
		id:              p.ID,
		bookingID:       p.BookingID,
		propertyID:      p.PropertyID,
		userID:          p.UserID,
		gatewayRefundID: p.GatewayRefundID,
		paymentID:       p.PaymentID,
		amount:          p.Amount,
		currency:        p.Currency,
		status:          p.Status,
		notes:           notes,
		referenceID:     p.ReferenceID,
		createdAt:       p.CreatedAt,
		processedAt:     p.ProcessedAt,
	}, nil
}

func (r *Refund) Notes() map[string]string {
	out := make(map[string]string, len(r.notes))
	for k, v := range r.notes {
		out[k] = v
	}
	return out
}

func (r *Refund) ID() uuid.UUID { return r.id }
func (r *Refund) BookingID() uuid.UUID { return r.bookingID }
func (r *Refund) PropertyID() uuid.UUID { return r.propertyID }
func (r *Refund) UserID() uuid.UUID { return r.userID }
func (r *Refund) GatewayRefundID() string { return r.gatewayRefundID }
func (r *Refund) PaymentID() string { return r.paymentID }
func (r *Refund) Amount() booking.Money { return r.amount }
func (r *Refund) Currency() string { return r.currency }
func (r *Refund) Status() Status { return r.status }
func (r *Refund) ReferenceID() *string { return r.referenceID }
func (r *Refund) CreatedAt() time.Time { return r.createdAt }
func (r *Refund) ProcessedAt() *time.Time { return r.processedAt }
