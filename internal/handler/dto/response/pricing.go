package response

import (
	"villa-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type QuoteCouponResponse struct {
	Code       string  `json:"code"`
	Scope      string  `json:"scope"`
	Percentage float64 `json:"discountPercentage"`
	Capped     bool    `json:"capped"`
}

type QuoteResponse struct {
	PropertyID  uuid.UUID            `json:"propertyId"`
	CheckIn     string               `json:"checkIn"`
	CheckOut    string               `json:"checkOut"`
	Nights      int                  `json:"nights"`
	BaseAmount  float64              `json:"baseAmount"`
	Discount    float64              `json:"discount"`
	FinalAmount float64              `json:"finalAmount"`
	Currency    string               `json:"currency"`
	Coupon      *QuoteCouponResponse `json:"coupon,omitempty"`
}

func FromQuote(q *queries.Quote) *QuoteResponse {
	resp := &QuoteResponse{
		PropertyID:  q.PropertyID,
		CheckIn:     q.Stay.CheckIn().Format("2006-01-02"),
		CheckOut:    q.Stay.CheckOut().Format("2006-01-02"),
		Nights:      q.Nights,
		BaseAmount:  q.BaseAmount.Major(),
		Discount:    q.Discount.Major(),
		FinalAmount: q.FinalAmount.Major(),
		Currency:    q.Currency,
	}
	if c := q.Coupon; c != nil {
		resp.Coupon = &QuoteCouponResponse{
			Code:       c.Code,
			Scope:      c.Scope,
			Percentage: c.Percentage,
			Capped:     c.Capped,
		}
	}
	return resp
}

type AvailabilityResponse struct {
	PropertyID uuid.UUID `json:"propertyId"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	Available  bool      `json:"available"`
}

func FromAvailability(a *queries.Availability) *AvailabilityResponse {
	return &AvailabilityResponse{
		PropertyID: a.PropertyID,
		CheckIn:    a.Stay.CheckIn().Format("2006-01-02"),
		CheckOut:   a.Stay.CheckOut().Format("2006-01-02"),
		Available:  a.Available,
	}
}
