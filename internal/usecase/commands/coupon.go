package commands

import (
	"context"
	"log/slog"

	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type CouponCommands interface {
	CreatePlatform(ctx context.Context, params coupon.PlatformParams) (*coupon.Coupon, error)
	// CreateHost requires hostID to own params.PropertyID.
	CreateHost(ctx context.Context, params coupon.HostParams) (*coupon.Coupon, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*coupon.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type couponCommandsImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
	newID func() uuid.UUID
}

func NewCouponCommands(uow shared.UnitOfWork, clk clock.Clock) CouponCommands {
	return &couponCommandsImpl{
		uow:   uow,
		clock: clk,
		newID: uuid.New,
	}
}

func (c *couponCommandsImpl) CreatePlatform(ctx context.Context, params coupon.PlatformParams) (*coupon.Coupon, error) {
	cp, err := coupon.NewPlatformCoupon(c.newID(), params, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.create(ctx, cp); err != nil {
		return nil, err
	}
	slog.Info("platform coupon created", "coupon_id", cp.ID(), "code", cp.Code().String())
	return cp, nil
}

func (c *couponCommandsImpl) CreateHost(ctx context.Context, params coupon.HostParams) (*coupon.Coupon, error) {
	prop, err := c.uow.CommandReads().PropertyByID(ctx, params.PropertyID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, queries.ErrPropertyNotFound
		}
		return nil, errs.Wrap(err, "failed to load property")
	}
	if !prop.IsOwnedBy(params.HostID) {
		return nil, ErrNotPropertyOwner
	}

	cp, err := coupon.NewHostCoupon(c.newID(), params, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.create(ctx, cp); err != nil {
		return nil, err
	}
	slog.Info("host coupon created",
		"coupon_id", cp.ID(), "code", cp.Code().String(), "property_id", params.PropertyID)
	return cp, nil
}

func (c *couponCommandsImpl) create(ctx context.Context, cp *coupon.Coupon) error {
	return c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Coupons().Create(ctx, cp); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrDuplicateCouponCode
			}
			return errs.Wrap(err, "failed to create coupon")
		}
		return nil
	})
}

func (c *couponCommandsImpl) SetActive(ctx context.Context, id uuid.UUID, active bool) (*coupon.Coupon, error) {
	var updated *coupon.Coupon
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		cp, err := tx.Reads().CouponByID(ctx, id)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return queries.ErrCouponNotFound
			}
			return errs.Wrap(err, "failed to load coupon")
		}
		now := c.clock.Now()
		cp.SetActive(active, now)
		if err := tx.Coupons().SetActive(ctx, id, active, now); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return queries.ErrCouponNotFound
			}
			return errs.Wrap(err, "failed to update coupon")
		}
		updated = cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *couponCommandsImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Coupons().Delete(ctx, id); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return queries.ErrCouponNotFound
			}
			return errs.Wrap(err, "failed to delete coupon")
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("coupon deleted", "coupon_id", id)
	return nil
}
