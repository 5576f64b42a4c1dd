package booking

import (
	"time"

	"villa-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrInvalidStayDates     = errs.Define("check-out must be after check-in", errs.ErrValidation)
	ErrInvalidDate          = errs.Define("invalid date, expected YYYY-MM-DD", errs.ErrValidation)
	ErrNegativeAmount       = errs.Define("amount cannot be negative", errs.ErrValidation)
	ErrInvalidAmount        = errs.Define("amount must be a finite number", errs.ErrValidation)
	ErrInvalidGuests        = errs.Define("number of guests must be at least 1", errs.ErrValidation)
	ErrIncompletePayment    = errs.Define("order id, payment id and signature are required", errs.ErrValidation)
	ErrInvalidCouponDetails = errs.Define("coupon details require a code", errs.ErrValidation)
	ErrInvalidStatus        = errs.Define("invalid booking status", errs.ErrValidation)
	ErrAlreadyCancelled     = errs.Define("booking is already cancelled", errs.ErrState)
	ErrNotCancellable       = errs.Define("booking cannot be cancelled in its current state", errs.ErrState)
)

type Booking struct {
	id                 uuid.UUID
	propertyID         uuid.UUID
	userID             uuid.UUID
	hostID             *uuid.UUID
	stay               StayDates
	guests             int
	totalPrice         Money
	status             Status
	paymentStatus      PaymentStatus
	payment            PaymentDetails
	coupon             *CouponDetails
	cancellationReason string
	cancelledAt        *time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

type ConfirmParams struct {
	PropertyID uuid.UUID
	UserID     uuid.UUID
	// HostID is copied from the property at creation and never re-derived.
	HostID     *uuid.UUID
	Stay       StayDates
	Guests     int
	TotalPrice Money
	Payment    PaymentDetails
	Coupon     *CouponDetails
}

// NewConfirmed creates a booking that is already confirmed and paid. Bookings are
// only ever created after a verified payment, so there is no pending constructor.
func NewConfirmed(id uuid.UUID, p ConfirmParams, now time.Time) (*Booking, error) {
	if p.Guests < 1 {
		return nil, ErrInvalidGuests
	}
	if p.Stay.Nights() < 1 {
		return nil, ErrInvalidStayDates
	}
	if p.Payment.PaymentID() == "" {
		return nil, ErrIncompletePayment
	}
	return &Booking{
		id:            id,
		propertyID:    p.PropertyID,
		userID:        p.UserID,
		hostID:        p.HostID,
		stay:          p.Stay,
		guests:        p.Guests,
		totalPrice:    p.TotalPrice,
		status:        StatusConfirmed,
		paymentStatus: PaymentPaid,
		payment:       p.Payment,
		coupon:        p.Coupon,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

type ReconstructParams struct {
	ID                 uuid.UUID
	PropertyID         uuid.UUID
	UserID             uuid.UUID
	HostID             *uuid.UUID
	CheckIn            time.Time
	CheckOut           time.Time
	Guests             int
	TotalPrice         int64
	Status             string
	PaymentStatus      string
	OrderID            string
	PaymentID          string
	Signature          string
	PaymentMethod      string
	PaidAt             time.Time
	CouponCode         *string
	CouponDiscount     int64
	CancellationReason string
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func Reconstruct(p ReconstructParams) (*Booking, error) {
	stay, err := NewStayDates(p.CheckIn, p.CheckOut)
	if err != nil {
		return nil, err
	}
	status := Status(p.Status)
	paymentStatus := PaymentStatus(p.PaymentStatus)
	if !status.IsValid() || !paymentStatus.IsValid() {
		return nil, ErrInvalidStatus
	}
	total, err := NewMoney(p.TotalPrice)
	if err != nil {
		return nil, err
	}
	b := &Booking{
		id:            p.ID,
		propertyID:    p.PropertyID,
		userID:        p.UserID,
		hostID:        p.HostID,
		stay:          stay,
		guests:        p.Guests,
		totalPrice:    total,
		status:        status,
		paymentStatus: paymentStatus,
		payment: PaymentDetails{
			orderID:   p.OrderID,
			paymentID: p.PaymentID,
			signature: p.Signature,
			method:    p.PaymentMethod,
			paidAt:    p.PaidAt,
		},
		cancellationReason: p.CancellationReason,
		cancelledAt:        p.CancelledAt,
		createdAt:          p.CreatedAt,
		updatedAt:          p.UpdatedAt,
	}
	if p.CouponCode != nil && *p.CouponCode != "" {
		discount, err := NewMoney(p.CouponDiscount)
		if err != nil {
			return nil, err
		}
		cd, err := NewCouponDetails(*p.CouponCode, discount, total)
		if err != nil {
			return nil, err
		}
		b.coupon = &cd
	}
	return b, nil
}

// Cancel moves a confirmed booking to cancelled. refunded selects the payment
// status: refunded when money was returned, not-eligible-for-refund otherwise.
func (b *Booking) Cancel(refunded bool, reason string, now time.Time) error {
	switch b.status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusConfirmed:
	default:
		return ErrNotCancellable
	}
	b.status = StatusCancelled
	if refunded {
		b.paymentStatus = PaymentRefunded
	} else {
		b.paymentStatus = PaymentNotEligibleToRefund
	}
	b.payment = b.payment.withDefaultMethod()
	b.cancellationReason = reason
	b.cancelledAt = &now
	b.updatedAt = now
	return nil
}

func (b *Booking) IsCancelled() bool {
	return b.status == StatusCancelled
}

func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.userID == userID
}

func (b *Booking) ID() uuid.UUID { return b.id }
func (b *Booking) PropertyID() uuid.UUID { return b.propertyID }
func (b *Booking) UserID() uuid.UUID { return b.userID }
func (b *Booking) HostID() *uuid.UUID { return b.hostID }
func (b *Booking) Stay() StayDates { return b.stay }
func (b *Booking) Guests() int { return b.guests }
func (b *Booking) Nights() int { return b.stay.Nights() }
func (b *Booking) TotalPrice() Money { return b.totalPrice }
func (b *Booking) Status() Status { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) Payment() PaymentDetails { return b.payment }
func (b *Booking) Coupon() *CouponDetails { return b.coupon }
func (b *Booking) CancellationReason() string { return b.cancellationReason }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Snapshot exports the persisted state; Reconstruct(b.Snapshot()) yields an equal booking.
func (b *Booking) Snapshot() ReconstructParams {
	p := ReconstructParams{
		ID:                 b.id,
		PropertyID:         b.propertyID,
		UserID:             b.userID,
		HostID:             b.hostID,
		CheckIn:            b.stay.CheckIn(),
		CheckOut:           b.stay.CheckOut(),
		Guests:             b.guests,
		TotalPrice:         b.totalPrice.Minor(),
		Status:             b.status.String(),
		PaymentStatus:      b.paymentStatus.String(),
		OrderID:            b.payment.orderID,
		PaymentID:          b.payment.paymentID,
		Signature:          b.payment.signature,
		PaymentMethod:      b.payment.method,
		PaidAt:             b.payment.paidAt,
		CancellationReason: b.cancellationReason,
		CancelledAt:        b.cancelledAt,
		CreatedAt:          b.createdAt,
		UpdatedAt:          b.updatedAt,
	}
	if b.coupon != nil {
		code := b.coupon.code
		p.CouponCode = &code
		p.CouponDiscount = b.coupon.discount.Minor()
	}
	return p
}
