package request

import (
	"strings"

	"villa-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

// CancelBookingRequest amounts are major units. Both are required and may be zero.
type CancelBookingRequest struct {
	BookingID       uuid.UUID  `json:"bookingId" binding:"required"`
	UserID          *uuid.UUID `json:"userId,omitempty"`
	RefundAmount    *float64   `json:"refundAmount" binding:"required"`
	CancellationFee *float64   `json:"cancellationFee" binding:"required"`
	Reason          string     `json:"reason,omitempty" binding:"max=500"`
}

func (r CancelBookingRequest) ToParams(userID uuid.UUID) commands.CancelParams {
	return commands.CancelParams{
		BookingID:       r.BookingID,
		UserID:          userID,
		RefundAmount:    *r.RefundAmount,
		CancellationFee: *r.CancellationFee,
		Reason:          strings.TrimSpace(r.Reason),
	}
}

type ListBookingsQuery struct {
	After string `form:"after"`
	Limit int    `form:"limit" binding:"omitempty,min=1"`
}
