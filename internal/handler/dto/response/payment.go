package response

import (
	"villa-booking/internal/usecase/commands"

	"github.com/google/uuid"
)

// OrderResponse amount stays in minor units, as the checkout widget expects.
type OrderResponse struct {
	ID       string         `json:"id"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Quote    *QuoteResponse `json:"quote,omitempty"`
}

func FromOrderResult(r *commands.OrderResult) *OrderResponse {
	resp := &OrderResponse{
		ID:       r.OrderID,
		Amount:   r.Amount,
		Currency: r.Currency,
	}
	if r.Quote != nil {
		resp.Quote = FromQuote(r.Quote)
	}
	return resp
}

type VerifyResponse struct {
	BookingID uuid.UUID `json:"bookingId"`
	PaymentID string    `json:"paymentId"`
	Replayed  bool      `json:"replayed"`
}

func FromReserveResult(r *commands.ReserveResult) *VerifyResponse {
	return &VerifyResponse{
		BookingID: r.Booking.ID(),
		PaymentID: r.Booking.Payment().PaymentID(),
		Replayed:  r.IsReplayed,
	}
}
