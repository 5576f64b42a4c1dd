package response

import (
	"time"

	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type AppliedCouponResponse struct {
	Code          string  `json:"code"`
	Discount      float64 `json:"discount"`
	OriginalPrice float64 `json:"originalPrice"`
}

type BookingResponse struct {
	ID                 uuid.UUID              `json:"id"`
	PropertyID         uuid.UUID              `json:"propertyId"`
	PropertyTitle      string                 `json:"propertyTitle"`
	PropertyAddress    string                 `json:"propertyAddress"`
	UserID             uuid.UUID              `json:"userId"`
	GuestName          string                 `json:"guestName,omitempty"`
	GuestEmail         string                 `json:"guestEmail,omitempty"`
	HostID             *uuid.UUID             `json:"hostId,omitempty"`
	CheckIn            time.Time              `json:"checkInDate"`
	CheckOut           time.Time              `json:"checkOutDate"`
	Nights             int                    `json:"nights"`
	Guests             int                    `json:"numberOfGuests"`
	TotalPrice         float64                `json:"totalPrice"`
	Status             string                 `json:"status"`
	PaymentStatus      string                 `json:"paymentStatus"`
	OrderID            string                 `json:"orderId"`
	PaymentID          string                 `json:"paymentId"`
	PaymentMethod      string                 `json:"paymentMethod"`
	PaidAt             time.Time              `json:"paidAt"`
	Coupon             *AppliedCouponResponse `json:"couponDetails,omitempty"`
	CancellationReason string                 `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time             `json:"cancelledAt,omitempty"`
	CreatedAt          time.Time              `json:"createdAt"`
}

type BookingListResponse struct {
	Items      []BookingResponse `json:"items"`
	NextCursor *queries.Cursor   `json:"nextCursor,omitempty"`
}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	var resp BookingResponse
	if err := copyView(&resp, v); err != nil {
		return nil, err
	}
	return &resp, nil
}

func FromBookingViews(items []queries.BookingView, next *queries.Cursor) (*BookingListResponse, error) {
	resp := &BookingListResponse{Items: make([]BookingResponse, 0, len(items)), NextCursor: next}
	for i := range items {
		b, err := FromBookingView(&items[i])
		if err != nil {
			return nil, err
		}
		resp.Items = append(resp.Items, *b)
	}
	return resp, nil
}

type RefundResponse struct {
	ID              uuid.UUID         `json:"id"`
	GatewayRefundID string            `json:"refundId"`
	PaymentID       string            `json:"paymentId"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	Notes           map[string]string `json:"notes,omitempty"`
	ReferenceID     *string           `json:"referenceId,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	ProcessedAt     *time.Time        `json:"processedAt,omitempty"`
}

type CancelResponse struct {
	BookingID     uuid.UUID       `json:"bookingId"`
	PaymentStatus string          `json:"paymentStatus"`
	RefundDetails *RefundResponse `json:"refundDetails,omitempty"`
}

func FromCancellationResult(r *commands.CancellationResult) *CancelResponse {
	resp := &CancelResponse{
		BookingID:     r.BookingID,
		PaymentStatus: r.PaymentStatus.String(),
	}
	if rf := r.Refund; rf != nil {
		resp.RefundDetails = &RefundResponse{
			ID:              rf.ID(),
			GatewayRefundID: rf.GatewayRefundID(),
			PaymentID:       rf.PaymentID(),
			Amount:          rf.Amount().Major(),
			Currency:        rf.Currency(),
			Status:          string(rf.Status()),
			Notes:           rf.Notes(),
			ReferenceID:     rf.ReferenceID(),
			CreatedAt:       rf.CreatedAt(),
			ProcessedAt:     rf.ProcessedAt(),
		}
	}
	return resp
}
