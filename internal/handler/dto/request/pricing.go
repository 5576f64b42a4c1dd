package request

import (
	"strings"

	"villa-booking/internal/domain/booking"

	"github.com/google/uuid"
)

type QuoteRequest struct {
	PropertyID uuid.UUID `json:"propertyId" binding:"required"`
	CheckIn    string    `json:"checkIn" binding:"required"`
	CheckOut   string    `json:"checkOut" binding:"required"`
	CouponCode string    `json:"couponCode,omitempty"`
}

func (r QuoteRequest) Stay() (booking.StayDates, error) {
	return booking.ParseStayDates(r.CheckIn, r.CheckOut)
}

func (r QuoteRequest) Code() string {
	return strings.TrimSpace(r.CouponCode)
}

type AvailabilityQuery struct {
	CheckIn  string `form:"checkIn" binding:"required"`
	CheckOut string `form:"checkOut" binding:"required"`
}
