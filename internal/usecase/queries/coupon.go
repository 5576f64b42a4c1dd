package queries

import (
	"context"

	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

type CouponReadStore interface {
	ListPlatform(ctx context.Context) ([]*coupon.Coupon, error)
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]*coupon.Coupon, error)
}

type CouponQueries interface {
	// ListPlatform returns all platform coupons, newest first, with their current validity.
	ListPlatform(ctx context.Context) ([]CouponView, error)
	ListForHost(ctx context.Context, hostID uuid.UUID) ([]CouponView, error)
}

type couponQueriesImpl struct {
	store CouponReadStore
	clock clock.Clock
}

func NewCouponQueries(store CouponReadStore, clk clock.Clock) CouponQueries {
	return &couponQueriesImpl{store: store, clock: clk}
}

func (q *couponQueriesImpl) ListPlatform(ctx context.Context) ([]CouponView, error) {
	items, err := q.store.ListPlatform(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list coupons")
	}
	return q.toViews(items), nil
}

func (q *couponQueriesImpl) ListForHost(ctx context.Context, hostID uuid.UUID) ([]CouponView, error) {
	items, err := q.store.ListByHost(ctx, hostID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list host coupons")
	}
	return q.toViews(items), nil
}

func (q *couponQueriesImpl) toViews(items []*coupon.Coupon) []CouponView {
	now := q.clock.Now()
	views := make([]CouponView, 0, len(items))
	for _, c := range items {
		views = append(views, NewCouponView(c, now))
	}
	return views
}
