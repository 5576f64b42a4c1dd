package request

import (
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"

	"github.com/google/uuid"
)

// Money fields are major units.
type CreatePlatformCouponRequest struct {
	Code               string    `json:"code" binding:"required"`
	Description        string    `json:"description"`
	DiscountPercentage float64   `json:"discountPercentage" binding:"gte=0,lte=100"`
	ValidFrom          time.Time `json:"validFrom" binding:"required"`
	ValidUntil         time.Time `json:"validUntil" binding:"required"`
	MinPurchase        float64   `json:"minPurchase" binding:"gte=0"`
	MaxDiscount        float64   `json:"maxDiscount" binding:"gte=0"`
	MaxUsage           *int      `json:"maxUsage,omitempty"`
}

func (r CreatePlatformCouponRequest) ToParams() (coupon.PlatformParams, error) {
	minPurchase, err := booking.MoneyFromMajor(r.MinPurchase)
	if err != nil {
		return coupon.PlatformParams{}, err
	}
	maxDiscount, err := booking.MoneyFromMajor(r.MaxDiscount)
	if err != nil {
		return coupon.PlatformParams{}, err
	}
	return coupon.PlatformParams{
		Code:        r.Code,
		Description: r.Description,
		Percentage:  r.DiscountPercentage,
		ValidFrom:   r.ValidFrom,
		ValidUntil:  r.ValidUntil,
		MinPurchase: minPurchase.Minor(),
		MaxDiscount: maxDiscount.Minor(),
		MaxUsage:    r.MaxUsage,
	}, nil
}

type CreateHostCouponRequest struct {
	Code               string    `json:"code" binding:"required"`
	Description        string    `json:"description"`
	DiscountPercentage float64   `json:"discountPercentage" binding:"gte=0,lte=100"`
	ValidFrom          time.Time `json:"validFrom" binding:"required"`
	ValidUntil         time.Time `json:"validUntil" binding:"required"`
	PropertyID         uuid.UUID `json:"propertyId" binding:"required"`
}

func (r CreateHostCouponRequest) ToParams(hostID uuid.UUID) coupon.HostParams {
	return coupon.HostParams{
		Code:        r.Code,
		Description: r.Description,
		Percentage:  r.DiscountPercentage,
		ValidFrom:   r.ValidFrom,
		ValidUntil:  r.ValidUntil,
		PropertyID:  r.PropertyID,
		HostID:      hostID,
	}
}

type SetCouponActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}
