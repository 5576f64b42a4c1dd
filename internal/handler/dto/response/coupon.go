package response

import (
	"time"

	"villa-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type CouponResponse struct {
	ID               uuid.UUID  `json:"id"`
	Code             string     `json:"code"`
	Scope            string     `json:"scope"`
	Description      string     `json:"description,omitempty"`
	Percentage       float64    `json:"discountPercentage"`
	ValidFrom        time.Time  `json:"validFrom"`
	ValidUntil       time.Time  `json:"validUntil"`
	IsActive         bool       `json:"isActive"`
	MinPurchase      float64    `json:"minPurchase"`
	MaxDiscount      float64    `json:"maxDiscount"`
	UsageCount       int        `json:"usageCount"`
	MaxUsage         *int       `json:"maxUsage,omitempty"`
	PropertyID       *uuid.UUID `json:"propertyId,omitempty"`
	HostID           *uuid.UUID `json:"hostId,omitempty"`
	IsCurrentlyValid bool       `json:"isCurrentlyValid"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func FromCouponView(v *queries.CouponView) (*CouponResponse, error) {
	var resp CouponResponse
	if err := copyView(&resp, v); err != nil {
		return nil, err
	}
	return &resp, nil
}

func FromCouponViews(items []queries.CouponView) ([]CouponResponse, error) {
	out := make([]CouponResponse, 0, len(items))
	for i := range items {
		c, err := FromCouponView(&items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}
