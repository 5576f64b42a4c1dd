package queries

import (
	"context"
	"strings"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type PricingQueries interface {
	Quote(ctx context.Context, propertyID uuid.UUID, stay booking.StayDates, couponCode string) (*Quote, error)
	// QuoteProperty prices an already loaded property.
	QuoteProperty(ctx context.Context, prop *property.Property, stay booking.StayDates, couponCode string) (*Quote, error)
	// ResolveCoupon looks the code up in the platform registry first, then in the host
	// registry, and checks validity at the time of the call.
	ResolveCoupon(ctx context.Context, code string, propertyID uuid.UUID) (*coupon.Coupon, error)
}

type pricingQueriesImpl struct {
	reads    shared.CommandReads
	clock    clock.Clock
	currency string
}

func NewPricingQueries(reads shared.CommandReads, clk clock.Clock, currency string) PricingQueries {
	return &pricingQueriesImpl{
		reads:    reads,
		clock:    clk,
		currency: currency,
	}
}

func (q *pricingQueriesImpl) Quote(ctx context.Context, propertyID uuid.UUID, stay booking.StayDates, couponCode string) (*Quote, error) {
	prop, err := q.reads.PropertyByID(ctx, propertyID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, errs.Wrap(err, "failed to load property")
	}
	return q.QuoteProperty(ctx, prop, stay, couponCode)
}

func (q *pricingQueriesImpl) QuoteProperty(ctx context.Context, prop *property.Property, stay booking.StayDates, couponCode string) (*Quote, error) {
	base := prop.BasePrice(stay)
	quote := &Quote{
		PropertyID:  prop.ID(),
		Stay:        stay,
		Nights:      stay.Nights(),
		BaseAmount:  base,
		FinalAmount: base,
		Currency:    q.currency,
	}
	if strings.TrimSpace(couponCode) == "" {
		return quote, nil
	}

	c, err := q.ResolveCoupon(ctx, couponCode, prop.ID())
	if err != nil {
		return nil, err
	}
	applied := c.Apply(base)
	quote.Discount = applied.Discount
	quote.FinalAmount = applied.Final
	quote.Coupon = &QuoteCoupon{
		Code:       c.Code().String(),
		Scope:      c.Scope().String(),
		Percentage: c.Percentage().Value(),
		Capped:     applied.Capped,
	}
	return quote, nil
}

func (q *pricingQueriesImpl) ResolveCoupon(ctx context.Context, code string, propertyID uuid.UUID) (*coupon.Coupon, error) {
	cc, err := coupon.NewCouponCode(code)
	if err != nil {
		return nil, err
	}

	c, err := q.reads.PlatformCouponByCode(ctx, cc)
	if err != nil {
		if !infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Wrap(err, "failed to load platform coupon")
		}
		c, err = q.reads.HostCouponByCode(ctx, cc)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrCouponNotFound
			}
			return nil, errs.Wrap(err, "failed to load host coupon")
		}
	}

	if err := c.AppliesTo(propertyID); err != nil {
		return nil, err
	}
	if err := c.ValidateUsage(q.clock.Now()); err != nil {
		return nil, err
	}
	return c, nil
}
