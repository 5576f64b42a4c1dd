package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/infra/readstore"
	"villa-booking/internal/infra/repository"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool *pgxpool.Pool
}

func NewPostgresUoW(pool *pgxpool.Pool) *PostgresUoW {
	return &PostgresUoW{pool: pool}
}

// ReadCommitted prevents dirty reads while allowing concurrent writes
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (u *PostgresUoW) CommandReads() shared.CommandReads {
	return newCommandReads(u.pool)
}

// DB exposes the pool for read stores and the outbox, which run outside transactions.
func (u *PostgresUoW) DB() db.DBTX {
	return u.pool
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{dbtx: pgxTx}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Fallback to a simple calculation if crypto/rand fails
		return 0
	}
	// Safe conversion: mask high bit to ensure positive int64
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- Intentionally safe conversion after masking
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx db.DBTX

	// Lazy-initialized repositories
	bookingRepo      shared.BookingRepository
	ledgerRepo       shared.LedgerRepository
	refundRepo       shared.RefundRepository
	couponRepo       shared.CouponRepository
	notificationRepo shared.NotificationRepository
	commandReads     shared.CommandReads
}

func (t *pgTx) Bookings() shared.BookingRepository {
	if t.bookingRepo == nil {
		t.bookingRepo = repository.NewBookingRepository(t.dbtx)
	}
	return t.bookingRepo
}

func (t *pgTx) Ledger() shared.LedgerRepository {
	if t.ledgerRepo == nil {
		t.ledgerRepo = repository.NewLedgerRepository(t.dbtx)
	}
	return t.ledgerRepo
}

func (t *pgTx) Refunds() shared.RefundRepository {
	if t.refundRepo == nil {
		t.refundRepo = repository.NewRefundRepository(t.dbtx)
	}
	return t.refundRepo
}

func (t *pgTx) Coupons() shared.CouponRepository {
	if t.couponRepo == nil {
		t.couponRepo = repository.NewCouponRepository(t.dbtx)
	}
	return t.couponRepo
}

func (t *pgTx) Notifications() shared.NotificationRepository {
	if t.notificationRepo == nil {
		t.notificationRepo = repository.NewNotificationRepository(t.dbtx)
	}
	return t.notificationRepo
}

func (t *pgTx) Reads() shared.CommandReads {
	if t.commandReads == nil {
		t.commandReads = newCommandReads(t.dbtx)
	}
	return t.commandReads
}

// commandReads binds the read stores to the pool or to the open transaction.
type commandReads struct {
	properties *readstore.PropertyReadStore
	bookings   *readstore.BookingReadStore
	coupons    *readstore.CouponReadStore
}

func newCommandReads(dbtx db.DBTX) *commandReads {
	return &commandReads{
		properties: readstore.NewPropertyReadStore(dbtx),
		bookings:   readstore.NewBookingReadStore(dbtx),
		coupons:    readstore.NewCouponReadStore(dbtx),
	}
}

func (r *commandReads) PropertyByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	return r.properties.FindByID(ctx, id, false)
}

func (r *commandReads) BookingForUser(ctx context.Context, bookingID, userID uuid.UUID) (*booking.Booking, error) {
	return r.bookings.FindForUser(ctx, bookingID, userID)
}

func (r *commandReads) BookingByPaymentID(ctx context.Context, paymentID string) (*booking.Booking, error) {
	return r.bookings.FindByPaymentID(ctx, paymentID)
}

func (r *commandReads) PlatformCouponByCode(ctx context.Context, code coupon.Code) (*coupon.Coupon, error) {
	return r.coupons.FindPlatformByCode(ctx, code)
}

func (r *commandReads) HostCouponByCode(ctx context.Context, code coupon.Code) (*coupon.Coupon, error) {
	return r.coupons.FindHostByCode(ctx, code)
}

func (r *commandReads) CouponByID(ctx context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	return r.coupons.FindByID(ctx, id)
}

var _ shared.UnitOfWork = (*PostgresUoW)(nil)
