package shared

import (
	"context"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/domain/refund"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Ledger() LedgerRepository
	Refunds() RefundRepository
	Coupons() CouponRepository
	Notifications() NotificationRepository
	Reads() CommandReads
}

// CommandReads return infra.RepositoryError with KindNotFound for missing rows.
type CommandReads interface {
	PropertyByID(ctx context.Context, id uuid.UUID) (*property.Property, error)
	// BookingForUser scopes the lookup to the owner, so other users' bookings are not found.
	BookingForUser(ctx context.Context, bookingID, userID uuid.UUID) (*booking.Booking, error)
	BookingByPaymentID(ctx context.Context, paymentID string) (*booking.Booking, error)
	PlatformCouponByCode(ctx context.Context, code coupon.Code) (*coupon.Coupon, error)
	HostCouponByCode(ctx context.Context, code coupon.Code) (*coupon.Coupon, error)
	CouponByID(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	// MarkCancelled writes the cancellation only when the stored row is not cancelled yet,
	// and returns KindNotFound otherwise.
	MarkCancelled(ctx context.Context, b *booking.Booking) error
}

// LedgerRepository owns the booked-dates ledger of a property.
type LedgerRepository interface {
	// LockProperty loads the property and holds its row lock until the transaction ends.
	LockProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error)
	// Append stores the entry, failing with KindExclusionViolated when it overlaps another one.
	Append(ctx context.Context, propertyID uuid.UUID, entry property.BookedDate) error
	Remove(ctx context.Context, propertyID, bookingID uuid.UUID) (bool, error)
}

type RefundRepository interface {
	Create(ctx context.Context, r *refund.Refund) error
}

type CouponRepository interface {
	// Create fails with KindDuplicateKey when the code exists in either registry.
	Create(ctx context.Context, c *coupon.Coupon) error
	SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, code coupon.Code) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}
