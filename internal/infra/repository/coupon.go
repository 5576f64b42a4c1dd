package repository

import (
	"context"
	"time"

	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
)

// coupon_codes holds every code once, so a code cannot exist in both registries.
const reserveCouponCode = `INSERT INTO coupon_codes (code, scope) VALUES ($1, $2)`

const insertPlatformCoupon = `
INSERT INTO coupons (
    id, code, description, discount_percentage, valid_from, valid_until, is_active,
    min_purchase, max_discount, usage_count, max_usage, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const insertHostCoupon = `
INSERT INTO host_coupons (
    id, code, description, discount_percentage, valid_from, valid_until, is_active,
    property_id, host_id, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const setPlatformCouponActive = `UPDATE coupons SET is_active = $2, updated_at = $3 WHERE id = $1`

const setHostCouponActive = `UPDATE host_coupons SET is_active = $2, updated_at = $3 WHERE id = $1`

// Deleting the code cascades to whichever registry holds the coupon.
const deleteCoupon = `
DELETE FROM coupon_codes
WHERE code IN (
    SELECT code FROM coupons WHERE id = $1
    UNION
    SELECT code FROM host_coupons WHERE id = $1
)`

const incrementCouponUsage = `UPDATE coupons SET usage_count = usage_count + 1, updated_at = now() WHERE code = $1`

type CouponRepository struct {
	db db.DBTX
}

func NewCouponRepository(dbtx db.DBTX) *CouponRepository {
	return &CouponRepository{db: dbtx}
}

func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	if _, err := r.db.Exec(ctx, reserveCouponCode, c.Code().String(), c.Scope().String()); err != nil {
		return infra.WrapRepoErr("failed to reserve coupon code", err)
	}

	var err error
	switch c.Scope() {
	case coupon.ScopeHost:
		_, err = r.db.Exec(ctx, insertHostCoupon,
			pgconv.UUIDToPgtype(c.ID()),
			c.Code().String(),
			c.Description(),
			c.Percentage().Value(),
			pgconv.TimeToPgtype(c.ValidFrom()),
			pgconv.TimeToPgtype(c.ValidUntil()),
			c.IsActive(),
			pgconv.UUIDPtrToPgtype(c.PropertyID()),
			pgconv.UUIDPtrToPgtype(c.HostID()),
			pgconv.TimeToPgtype(c.CreatedAt()),
			pgconv.TimeToPgtype(c.UpdatedAt()),
		)
	default:
		_, err = r.db.Exec(ctx, insertPlatformCoupon,
			pgconv.UUIDToPgtype(c.ID()),
			c.Code().String(),
			c.Description(),
			c.Percentage().Value(),
			pgconv.TimeToPgtype(c.ValidFrom()),
			pgconv.TimeToPgtype(c.ValidUntil()),
			c.IsActive(),
			c.MinPurchase().Minor(),
			c.MaxDiscount().Minor(),
			c.UsageCount(),
			pgconv.IntPtrToPgtype(c.MaxUsage()),
			pgconv.TimeToPgtype(c.CreatedAt()),
			pgconv.TimeToPgtype(c.UpdatedAt()),
		)
	}
	if err != nil {
		return infra.WrapRepoErr("failed to create coupon", err)
	}
	return nil
}

func (r *CouponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error {
	for _, stmt := range []string{setPlatformCouponActive, setHostCouponActive} {
		tag, err := r.db.Exec(ctx, stmt, pgconv.UUIDToPgtype(id), active, pgconv.TimeToPgtype(at))
		if err != nil {
			return infra.WrapRepoErr("failed to update coupon", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
	}
	return infra.NewRepoErr(infra.KindNotFound, "coupon not found")
}

func (r *CouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteCoupon, pgconv.UUIDToPgtype(id))
	if err != nil {
		return infra.WrapRepoErr("failed to delete coupon", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "coupon not found")
	}
	return nil
}

func (r *CouponRepository) IncrementUsage(ctx context.Context, code coupon.Code) error {
	tag, err := r.db.Exec(ctx, incrementCouponUsage, code.String())
	if err != nil {
		return infra.WrapRepoErr("failed to increment coupon usage", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "platform coupon not found")
	}
	return nil
}
