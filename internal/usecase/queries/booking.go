package queries

import (
	"context"
	"strconv"
	"time"

	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/invoice"

	"github.com/google/uuid"
)

type BookingReadStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]BookingView, error)
	GetForUser(ctx context.Context, bookingID, userID uuid.UUID) (*BookingView, error)
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]BookingView, error)
	ListAllFirstPage(ctx context.Context, limit int) ([]BookingView, error)
	ListAllKeyset(ctx context.Context, lastCreatedAt time.Time, lastID uuid.UUID, limit int) ([]BookingView, error)
	GetDetail(ctx context.Context, bookingID uuid.UUID) (*BookingDetail, error)
	// YearSequence is the 1-based position of the booking among bookings created in the same year.
	YearSequence(ctx context.Context, bookingID uuid.UUID) (int, error)
}

type BookingQueries interface {
	// ListForUser returns the user's bookings, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]BookingView, error)
	GetForUser(ctx context.Context, bookingID, userID uuid.UUID) (*BookingView, error)
	ListForHost(ctx context.Context, hostID uuid.UUID) ([]BookingView, error)
	ListAll(ctx context.Context, cursor *Cursor, limit int) ([]BookingView, *Cursor, error)
	// GetDetail is a system read without ownership checks.
	GetDetail(ctx context.Context, bookingID uuid.UUID) (*BookingDetail, error)
	InvoiceForUser(ctx context.Context, bookingID, userID uuid.UUID) (*invoice.Invoice, error)
	Invoice(ctx context.Context, detail *BookingDetail) (*invoice.Invoice, error)
}

type bookingQueriesImpl struct {
	store    BookingReadStore
	clock    clock.Clock
	currency string
}

func NewBookingQueries(store BookingReadStore, clk clock.Clock, currency string) BookingQueries {
	return &bookingQueriesImpl{
		store:    store,
		clock:    clk,
		currency: currency,
	}
}

func (q *bookingQueriesImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]BookingView, error) {
	items, err := q.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list user bookings")
	}
	return items, nil
}

func (q *bookingQueriesImpl) GetForUser(ctx context.Context, bookingID, userID uuid.UUID) (*BookingView, error) {
	v, err := q.store.GetForUser(ctx, bookingID, userID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Wrap(err, "failed to get booking")
	}
	return v, nil
}

func (q *bookingQueriesImpl) ListForHost(ctx context.Context, hostID uuid.UUID) ([]BookingView, error) {
	items, err := q.store.ListByHost(ctx, hostID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to list host bookings")
	}
	return items, nil
}

func (q *bookingQueriesImpl) ListAll(ctx context.Context, cursor *Cursor, limit int) ([]BookingView, *Cursor, error) {
	limit = ValidateLimit(limit)
	// Fetch one extra row to know whether another page exists.
	var (
		items []BookingView
		err   error
	)
	if cursor == nil || cursor.After == "" {
		items, err = q.store.ListAllFirstPage(ctx, limit+1)
	} else {
		lastCreatedAt, lastID, decodeErr := DecodeAfterCursor(cursor.After)
		if decodeErr != nil {
			return nil, nil, errs.Mark(decodeErr, ErrInvalidCursor)
		}
		items, err = q.store.ListAllKeyset(ctx, lastCreatedAt, lastID, limit+1)
	}
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to list bookings")
	}

	var next *Cursor
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
	}
	return items, next, nil
}

func (q *bookingQueriesImpl) GetDetail(ctx context.Context, bookingID uuid.UUID) (*BookingDetail, error) {
	d, err := q.store.GetDetail(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Wrap(err, "failed to get booking detail")
	}
	return d, nil
}

func (q *bookingQueriesImpl) InvoiceForUser(ctx context.Context, bookingID, userID uuid.UUID) (*invoice.Invoice, error) {
	// Ownership check first so other users' bookings stay invisible.
	if _, err := q.GetForUser(ctx, bookingID, userID); err != nil {
		return nil, err
	}
	detail, err := q.GetDetail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return q.Invoice(ctx, detail)
}

func (q *bookingQueriesImpl) Invoice(ctx context.Context, detail *BookingDetail) (*invoice.Invoice, error) {
	b := detail.Booking
	seq, err := q.store.YearSequence(ctx, b.ID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to compute invoice sequence")
	}

	subtotal := b.TotalPrice
	var discount int64
	var couponCode string
	if b.Coupon != nil {
		subtotal = b.Coupon.OriginalPrice
		discount = b.Coupon.Discount
		couponCode = b.Coupon.Code
	}

	return &invoice.Invoice{
		Number:     invoice.Number(b.CreatedAt.Year(), seq),
		BookingRef: invoice.BookingRef(b.PaymentID),
		IssuedAt:   q.clock.Now(),
		Guest: invoice.Party{
			Name:   detail.Guest.FullName(),
			Email:  detail.Guest.Email().Value(),
			Mobile: detail.Guest.Mobile(),
		},
		Property: invoice.Party{
			Name:    detail.Property.Title,
			Address: detail.Property.Address,
		},
		CheckIn:  b.CheckIn,
		CheckOut: b.CheckOut,
		Nights:   b.Nights,
		Guests:   b.Guests,
		Lines: []invoice.Line{
			{Description: nightsLine(b.Nights), Amount: subtotal},
		},
		Subtotal:      subtotal,
		Discount:      discount,
		CouponCode:    couponCode,
		Total:         b.TotalPrice,
		Currency:      q.currency,
		PaymentID:     b.PaymentID,
		PaymentMethod: b.PaymentMethod,
		Status:        b.PaymentStatus,
	}, nil
}

func nightsLine(n int) string {
	if n == 1 {
		return "Stay (1 night)"
	}
	return "Stay (" + strconv.Itoa(n) + " nights)"
}
