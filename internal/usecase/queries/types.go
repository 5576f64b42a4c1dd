package queries

import (
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/refund"
	"villa-booking/internal/domain/user"

	"github.com/google/uuid"
)

// Amounts in read models are minor currency units.

type PropertySummary struct {
	ID      uuid.UUID
	HostID  *uuid.UUID
	Title   string
	Address string
}

type AppliedCouponView struct {
	Code          string `json:"code"`
	Discount      int64  `json:"discount"`
	OriginalPrice int64  `json:"original_price"`
}

type BookingView struct {
	ID                 uuid.UUID          `json:"id"`
	PropertyID         uuid.UUID          `json:"property_id"`
	PropertyTitle      string             `json:"property_title"`
	PropertyAddress    string             `json:"property_address"`
	UserID             uuid.UUID          `json:"user_id"`
	GuestName          string             `json:"guest_name"`
	GuestEmail         string             `json:"guest_email"`
	HostID             *uuid.UUID         `json:"host_id,omitempty"`
	CheckIn            time.Time          `json:"check_in"`
	CheckOut           time.Time          `json:"check_out"`
	Nights             int                `json:"nights"`
	Guests             int                `json:"guests"`
	TotalPrice         int64              `json:"total_price"`
	Status             string             `json:"status"`
	PaymentStatus      string             `json:"payment_status"`
	OrderID            string             `json:"order_id"`
	PaymentID          string             `json:"payment_id"`
	PaymentMethod      string             `json:"payment_method"`
	PaidAt             time.Time          `json:"paid_at"`
	Coupon             *AppliedCouponView `json:"coupon,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// NewBookingView flattens a booking with the catalog and identity summaries.
// A deleted property leaves the summary fields empty.
func NewBookingView(b *booking.Booking, prop *PropertySummary, guest *user.Contact) BookingView {
	v := BookingView{
		ID:                 b.ID(),
		PropertyID:         b.PropertyID(),
		UserID:             b.UserID(),
		HostID:             b.HostID(),
		CheckIn:            b.Stay().CheckIn(),
		CheckOut:           b.Stay().CheckOut(),
		Nights:             b.Nights(),
		Guests:             b.Guests(),
		TotalPrice:         b.TotalPrice().Minor(),
		Status:             b.Status().String(),
		PaymentStatus:      b.PaymentStatus().String(),
		OrderID:            b.Payment().OrderID(),
		PaymentID:          b.Payment().PaymentID(),
		PaymentMethod:      b.Payment().Method(),
		PaidAt:             b.Payment().PaidAt(),
		CancellationReason: b.CancellationReason(),
		CancelledAt:        b.CancelledAt(),
		CreatedAt:          b.CreatedAt(),
	}
	if c := b.Coupon(); c != nil {
		v.Coupon = &AppliedCouponView{
			Code:          c.Code(),
			Discount:      c.Discount().Minor(),
			OriginalPrice: c.OriginalPrice().Minor(),
		}
	}
	if prop != nil {
		v.PropertyTitle = prop.Title
		v.PropertyAddress = prop.Address
	}
	if guest != nil {
		v.GuestName = guest.FullName()
		v.GuestEmail = guest.Email().Value()
	}
	return v
}

type RefundView struct {
	ID              uuid.UUID         `json:"id"`
	BookingID       uuid.UUID         `json:"booking_id"`
	GatewayRefundID string            `json:"gateway_refund_id"`
	PaymentID       string            `json:"payment_id"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	Notes           map[string]string `json:"notes,omitempty"`
	ReferenceID     *string           `json:"reference_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
}

func NewRefundView(r *refund.Refund) RefundView {
	return RefundView{
		ID:              r.ID(),
		BookingID:       r.BookingID(),
		GatewayRefundID: r.GatewayRefundID(),
		PaymentID:       r.PaymentID(),
		Amount:          r.Amount().Minor(),
		Currency:        r.Currency(),
		Status:          string(r.Status()),
		Notes:           r.Notes(),
		ReferenceID:     r.ReferenceID(),
		CreatedAt:       r.CreatedAt(),
		ProcessedAt:     r.ProcessedAt(),
	}
}

// BookingDetail is the populated booking handed to notifiers and invoices.
type BookingDetail struct {
	Booking  BookingView
	Guest    user.Contact
	Property PropertySummary
	Refunds  []RefundView
}

type CouponView struct {
	ID               uuid.UUID  `json:"id"`
	Code             string     `json:"code"`
	Scope            string     `json:"scope"`
	Description      string     `json:"description,omitempty"`
	Percentage       float64    `json:"discount_percentage"`
	ValidFrom        time.Time  `json:"valid_from"`
	ValidUntil       time.Time  `json:"valid_until"`
	IsActive         bool       `json:"is_active"`
	MinPurchase      int64      `json:"min_purchase"`
	MaxDiscount      int64      `json:"max_discount"`
	UsageCount       int        `json:"usage_count"`
	MaxUsage         *int       `json:"max_usage,omitempty"`
	PropertyID       *uuid.UUID `json:"property_id,omitempty"`
	HostID           *uuid.UUID `json:"host_id,omitempty"`
	IsCurrentlyValid bool       `json:"is_currently_valid"`
	CreatedAt        time.Time  `json:"created_at"`
}

func NewCouponView(c *coupon.Coupon, now time.Time) CouponView {
	return CouponView{
		ID:               c.ID(),
		Code:             c.Code().String(),
		Scope:            c.Scope().String(),
		Description:      c.Description(),
		Percentage:       c.Percentage().Value(),
		ValidFrom:        c.ValidFrom(),
		ValidUntil:       c.ValidUntil(),
		IsActive:         c.IsActive(),
		MinPurchase:      c.MinPurchase().Minor(),
		MaxDiscount:      c.MaxDiscount().Minor(),
		UsageCount:       c.UsageCount(),
		MaxUsage:         c.MaxUsage(),
		PropertyID:       c.PropertyID(),
		HostID:           c.HostID(),
		IsCurrentlyValid: c.IsValidAt(now),
		CreatedAt:        c.CreatedAt(),
	}
}

type QuoteCoupon struct {
	Code       string
	Scope      string
	Percentage float64
	Capped     bool
}

type Quote struct {
	PropertyID  uuid.UUID
	Stay        booking.StayDates
	Nights      int
	BaseAmount  booking.Money
	Discount    booking.Money
	FinalAmount booking.Money
	Currency    string
	Coupon      *QuoteCoupon
}

type Availability struct {
	PropertyID uuid.UUID
	Stay       booking.StayDates
	Available  bool
}
