package request

import (
	"strings"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

type CouponAppliedRequest struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

// BookingDetailsRequest carries dates as YYYY-MM-DD or RFC3339.
type BookingDetailsRequest struct {
	CheckInDate   string                `json:"checkInDate" binding:"required"`
	CheckOutDate  string                `json:"checkOutDate" binding:"required"`
	Guests        int                   `json:"guests" binding:"required,min=1"`
	CouponCode    string                `json:"couponCode,omitempty"`
	CouponApplied *CouponAppliedRequest `json:"couponApplied,omitempty"`
}

func (d BookingDetailsRequest) Stay() (booking.StayDates, error) {
	return booking.ParseStayDates(d.CheckInDate, d.CheckOutDate)
}

// Code prefers the explicit couponCode and falls back to the applied coupon.
func (d BookingDetailsRequest) Code() string {
	if code := strings.TrimSpace(d.CouponCode); code != "" {
		return code
	}
	if d.CouponApplied != nil {
		return strings.TrimSpace(d.CouponApplied.Code)
	}
	return ""
}

// Amount is in major units.
type CreateOrderRequest struct {
	Amount         float64               `json:"amount" binding:"required"`
	PropertyID     uuid.UUID             `json:"propertyId" binding:"required"`
	UserID         *uuid.UUID            `json:"userId,omitempty"`
	BookingDetails BookingDetailsRequest `json:"bookingDetails" binding:"required"`
}

func (r CreateOrderRequest) ToParams(userID uuid.UUID) (commands.CreateOrderParams, error) {
	stay, err := r.BookingDetails.Stay()
	if err != nil {
		return commands.CreateOrderParams{}, err
	}
	return commands.CreateOrderParams{
		UserID:     userID,
		PropertyID: r.PropertyID,
		Amount:     r.Amount,
		Stay:       stay,
		Guests:     r.BookingDetails.Guests,
		CouponCode: r.BookingDetails.Code(),
	}, nil
}

type VerifyPaymentRequest struct {
	OrderID        string                `json:"razorpay_order_id" binding:"required"`
	PaymentID      string                `json:"razorpay_payment_id" binding:"required"`
	Signature      string                `json:"razorpay_signature" binding:"required"`
	PropertyID     uuid.UUID             `json:"propertyId" binding:"required"`
	UserID         *uuid.UUID            `json:"userId,omitempty"`
	BookingDetails BookingDetailsRequest `json:"bookingDetails" binding:"required"`
}

func (r VerifyPaymentRequest) ToParams(userID uuid.UUID) (commands.VerifyParams, error) {
	stay, err := r.BookingDetails.Stay()
	if err != nil {
		return commands.VerifyParams{}, err
	}
	params := commands.VerifyParams{
		OrderID:    strings.TrimSpace(r.OrderID),
		PaymentID:  strings.TrimSpace(r.PaymentID),
		Signature:  strings.TrimSpace(r.Signature),
		PropertyID: r.PropertyID,
		UserID:     userID,
		Stay:       stay,
		Guests:     r.BookingDetails.Guests,
	}
	if applied := r.BookingDetails.CouponApplied; applied != nil && strings.TrimSpace(applied.Code) != "" {
		discount, err := booking.MoneyFromMajor(applied.Discount)
		if err != nil {
			return commands.VerifyParams{}, err
		}
		params.Coupon = &commands.AppliedCoupon{
			Code:     strings.TrimSpace(applied.Code),
			Discount: discount,
		}
	}
	return params, nil
}
