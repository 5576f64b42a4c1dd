package repository

import (
	"context"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"
)

const insertBooking = `
INSERT INTO bookings (
    id, property_id, user_id, host_id, check_in, check_out, number_of_guests, nights,
    total_price, status, payment_status, order_id, payment_id, signature, payment_method,
    paid_at, coupon_code, coupon_discount, cancellation_reason, cancelled_at, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
)`

// The status guard makes a second cancellation affect zero rows.
const markBookingCancelled = `
UPDATE bookings
SET status = $2,
    payment_status = $3,
    payment_method = $4,
    cancellation_reason = $5,
    cancelled_at = $6,
    updated_at = $7
WHERE id = $1 AND status <> 'cancelled'`

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{db: dbtx}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	s := b.Snapshot()
	_, err := r.db.Exec(ctx, insertBooking,
		pgconv.UUIDToPgtype(s.ID),
		pgconv.UUIDToPgtype(s.PropertyID),
		pgconv.UUIDToPgtype(s.UserID),
		pgconv.UUIDPtrToPgtype(s.HostID),
		pgconv.DateToPgtype(s.CheckIn),
		pgconv.DateToPgtype(s.CheckOut),
		s.Guests,
		b.Nights(),
		s.TotalPrice,
		s.Status,
		s.PaymentStatus,
		s.OrderID,
		s.PaymentID,
		s.Signature,
		s.PaymentMethod,
		pgconv.TimeToPgtype(s.PaidAt),
		pgconv.StringPtrToPgtype(s.CouponCode),
		s.CouponDiscount,
		s.CancellationReason,
		pgconv.TimePtrToPgtype(s.CancelledAt),
		pgconv.TimeToPgtype(s.CreatedAt),
		pgconv.TimeToPgtype(s.UpdatedAt),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) MarkCancelled(ctx context.Context, b *booking.Booking) error {
	s := b.Snapshot()
	tag, err := r.db.Exec(ctx, markBookingCancelled,
		pgconv.UUIDToPgtype(s.ID),
		s.Status,
		s.PaymentStatus,
		s.PaymentMethod,
		s.CancellationReason,
		pgconv.TimePtrToPgtype(s.CancelledAt),
		pgconv.TimeToPgtype(s.UpdatedAt),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to cancel booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindNotFound, "active booking not found")
	}
	return nil
}
