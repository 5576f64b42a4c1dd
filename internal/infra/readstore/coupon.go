package readstore

import (
	"context"

	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Both registries are read through one column list; host-only and platform-only
// columns are filled with neutral values for the other scope.
const platformCouponSelect = `
SELECT id, code, 'platform' AS scope, description, discount_percentage, valid_from, valid_until,
       is_active, min_purchase, max_discount, usage_count, max_usage,
       NULL::uuid AS property_id, NULL::uuid AS host_id, created_at, updated_at
FROM coupons`

const hostCouponSelect = `
SELECT id, code, 'host' AS scope, description, discount_percentage, valid_from, valid_until,
       is_active, 0::bigint AS min_purchase, 0::bigint AS max_discount, 0 AS usage_count, NULL::int AS max_usage,
       property_id, host_id, created_at, updated_at
FROM host_coupons`

const getPlatformCouponByCode = platformCouponSelect + ` WHERE code = $1`

const getHostCouponByCode = hostCouponSelect + ` WHERE code = $1`

const getCouponByID = platformCouponSelect + ` WHERE id = $1 UNION ALL ` + hostCouponSelect + ` WHERE id = $1`

const listPlatformCoupons = platformCouponSelect + ` ORDER BY created_at DESC, id DESC`

const listHostCouponsByHost = hostCouponSelect + ` WHERE host_id = $1 ORDER BY created_at DESC, id DESC`

type CouponReadStore struct {
	db db.DBTX
}

func NewCouponReadStore(dbtx db.DBTX) *CouponReadStore {
	return &CouponReadStore{db: dbtx}
}

func (r *CouponReadStore) FindPlatformByCode(ctx context.Context, code coupon.Code) (*coupon.Coupon, error) {
	return r.findOne(ctx, getPlatformCouponByCode, code.String())
}

func (r *CouponReadStore) FindHostByCode(ctx context.Context, code coupon.Code) (*coupon.Coupon, error) {
	return r.findOne(ctx, getHostCouponByCode, code.String())
}

func (r *CouponReadStore) FindByID(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	return r.findOne(ctx, getCouponByID, pgconv.UUIDToPgtype(id))
}

func (r *CouponReadStore) ListPlatform(ctx context.Context) ([]*coupon.Coupon, error) {
	return r.list(ctx, listPlatformCoupons)
}

func (r *CouponReadStore) ListByHost(ctx context.Context, hostID uuid.UUID) ([]*coupon.Coupon, error) {
	return r.list(ctx, listHostCouponsByHost, pgconv.UUIDToPgtype(hostID))
}

func (r *CouponReadStore) findOne(ctx context.Context, sql string, arg any) (*coupon.Coupon, error) {
	c, err := scanCoupon(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("coupon not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find coupon", err)
	}
	return c, nil
}

func (r *CouponReadStore) list(ctx context.Context, sql string, args ...any) ([]*coupon.Coupon, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list coupons", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*coupon.Coupon, error) {
		return scanCoupon(row)
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan coupons", err)
	}
	return items, nil
}

func scanCoupon(row pgx.Row) (*coupon.Coupon, error) {
	var (
		p                    coupon.ReconstructParams
		id                   pgtype.UUID
		scope                string
		maxUsage             pgtype.Int4
		propertyID, hostID   pgtype.UUID
		validFrom, validTo   pgtype.Timestamptz
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &p.Code, &scope, &p.Description, &p.Percentage, &validFrom, &validTo,
		&p.IsActive, &p.MinPurchase, &p.MaxDiscount, &p.UsageCount, &maxUsage,
		&propertyID, &hostID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = pgconv.UUIDFromPgtype(id)
	p.Scope = coupon.Scope(scope)
	p.MaxUsage = pgconv.IntPtrFromPgtype(maxUsage)
	p.PropertyID = pgconv.UUIDPtrFromPgtype(propertyID)
	p.HostID = pgconv.UUIDPtrFromPgtype(hostID)
	p.ValidFrom = validFrom.Time.UTC()
	p.ValidUntil = validTo.Time.UTC()
	p.CreatedAt = createdAt.Time.UTC()
	p.UpdatedAt = updatedAt.Time.UTC()
	return coupon.Reconstruct(p), nil
}
