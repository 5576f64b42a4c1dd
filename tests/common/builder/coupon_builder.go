//go:build unit || e2e

package builder

import (
	"time"

	"villa-booking/internal/domain/coupon"

	"github.com/google/uuid"
)

type CouponBuilder struct {
	Code        string
	Description string
	Percentage  float64
	ValidFrom   time.Time
	ValidUntil  time.Time
	MinPurchase int64
	MaxDiscount int64
	MaxUsage    *int
	PropertyID  uuid.UUID
	HostID      uuid.UUID
	CreatedAt   time.Time
}

// NewCouponBuilder returns a 10% coupon valid through June 2025.
func NewCouponBuilder() *CouponBuilder {
	return &CouponBuilder{
		Code:        "SUMMER10",
		Description: "Summer offer",
		Percentage:  10,
		ValidFrom:   time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:  time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2025, time.April, 20, 9, 0, 0, 0, time.UTC),
	}
}

func (b *CouponBuilder) With(mutate func(*CouponBuilder)) *CouponBuilder {
	mutate(b)
	return b
}

func (b *CouponBuilder) WithCode(code string) *CouponBuilder {
	b.Code = code
	return b
}

func (b *CouponBuilder) WithPercentage(p float64) *CouponBuilder {
	b.Percentage = p
	return b
}

func (b *CouponBuilder) WithMinPurchase(minor int64) *CouponBuilder {
	b.MinPurchase = minor
	return b
}

func (b *CouponBuilder) WithMaxDiscount(minor int64) *CouponBuilder {
	b.MaxDiscount = minor
	return b
}

func (b *CouponBuilder) WithMaxUsage(n int) *CouponBuilder {
	b.MaxUsage = &n
	return b
}

func (b *CouponBuilder) WithWindow(from, until time.Time) *CouponBuilder {
	b.ValidFrom = from
	b.ValidUntil = until
	return b
}

func (b *CouponBuilder) ForProperty(propertyID, hostID uuid.UUID) *CouponBuilder {
	b.PropertyID = propertyID
	b.HostID = hostID
	return b
}

func (b *CouponBuilder) PlatformParams() coupon.PlatformParams {
	return coupon.PlatformParams{
		Code:        b.Code,
		Description: b.Description,
		Percentage:  b.Percentage,
		ValidFrom:   b.ValidFrom,
		ValidUntil:  b.ValidUntil,
		MinPurchase: b.MinPurchase,
		MaxDiscount: b.MaxDiscount,
		MaxUsage:    b.MaxUsage,
	}
}

func (b *CouponBuilder) HostParams() coupon.HostParams {
	return coupon.HostParams{
		Code:        b.Code,
		Description: b.Description,
		Percentage:  b.Percentage,
		ValidFrom:   b.ValidFrom,
		ValidUntil:  b.ValidUntil,
		PropertyID:  b.PropertyID,
		HostID:      b.HostID,
	}
}

func (b *CouponBuilder) BuildPlatform() (*coupon.Coupon, error) {
	return coupon.NewPlatformCoupon(uuid.New(), b.PlatformParams(), b.CreatedAt)
}

func (b *CouponBuilder) BuildHost() (*coupon.Coupon, error) {
	return coupon.NewHostCoupon(uuid.New(), b.HostParams(), b.CreatedAt)
}

// MustPlatform is BuildPlatform for fixtures known to be valid.
func (b *CouponBuilder) MustPlatform() *coupon.Coupon {
	c, err := b.BuildPlatform()
	if err != nil {
		panic(err)
	}
	return c
}

func (b *CouponBuilder) MustHost() *coupon.Coupon {
	c, err := b.BuildHost()
	if err != nil {
		panic(err)
	}
	return c
}
