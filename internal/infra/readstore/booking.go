package readstore

import (
	"context"
	"encoding/json"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/domain/refund"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"
	"villa-booking/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `
    b.id, b.property_id, b.user_id, b.host_id, b.check_in, b.check_out, b.number_of_guests,
    b.total_price, b.status, b.payment_status, b.order_id, b.payment_id, b.signature,
    b.payment_method, b.paid_at, b.coupon_code, b.coupon_discount, b.cancellation_reason,
    b.cancelled_at, b.created_at, b.updated_at`

// Catalog and identity rows may be gone; both joins are outer.
const bookingViewSelect = `
SELECT` + bookingColumns + `,
    p.id, p.host_id, p.title, p.address_line, p.city, p.state, p.pincode,
    u.id, u.first_name, u.last_name, u.email, u.mobile_number
FROM bookings b
LEFT JOIN properties p ON p.id = b.property_id
LEFT JOIN users u ON u.id = b.user_id`

const getBookingForUser = `SELECT` + bookingColumns + ` FROM bookings b WHERE b.id = $1 AND b.user_id = $2`

const getBookingByPaymentID = `SELECT` + bookingColumns + ` FROM bookings b WHERE b.payment_id = $1`

const listBookingViewsByUser = bookingViewSelect + `
WHERE b.user_id = $1
ORDER BY b.created_at DESC, b.id DESC`

const getBookingViewForUser = bookingViewSelect + `
WHERE b.id = $1 AND b.user_id = $2`

const getBookingView = bookingViewSelect + `
WHERE b.id = $1`

const listBookingViewsByHost = bookingViewSelect + `
WHERE b.host_id = $1
ORDER BY b.created_at DESC, b.id DESC`

const listBookingViewsFirstPage = bookingViewSelect + `
ORDER BY b.created_at DESC, b.id DESC
LIMIT $1`

const listBookingViewsKeyset = bookingViewSelect + `
WHERE (b.created_at, b.id) < ($1, $2)
ORDER BY b.created_at DESC, b.id DESC
LIMIT $3`

const listRefundsByBooking = `
SELECT id, booking_id, property_id, user_id, gateway_refund_id, payment_id, amount,
       currency, status, notes, reference_id, created_at, processed_at
FROM refunds
WHERE booking_id = $1
ORDER BY created_at`

const bookingYearSequence = `
SELECT count(*)
FROM bookings b
JOIN bookings t ON t.id = $1
WHERE date_part('year', b.created_at AT TIME ZONE 'UTC') = date_part('year', t.created_at AT TIME ZONE 'UTC')
  AND (b.created_at, b.id) <= (t.created_at, t.id)`

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

func (r *BookingReadStore) FindForUser(ctx context.Context, bookingID, userID uuid.UUID) (*booking.Booking, error) {
	row := r.db.QueryRow(ctx, getBookingForUser, pgconv.UUIDToPgtype(bookingID), pgconv.UUIDToPgtype(userID))
	b, err := scanBooking(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}
	return b, nil
}

func (r *BookingReadStore) FindByPaymentID(ctx context.Context, paymentID string) (*booking.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, getBookingByPaymentID, paymentID))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by payment", err)
	}
	return b, nil
}

func (r *BookingReadStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]queries.BookingView, error) {
	return r.listViews(ctx, listBookingViewsByUser, pgconv.UUIDToPgtype(userID))
}

func (r *BookingReadStore) ListByHost(ctx context.Context, hostID uuid.UUID) ([]queries.BookingView, error) {
	return r.listViews(ctx, listBookingViewsByHost, pgconv.UUIDToPgtype(hostID))
}

func (r *BookingReadStore) ListAllFirstPage(ctx context.Context, limit int) ([]queries.BookingView, error) {
	return r.listViews(ctx, listBookingViewsFirstPage, limit)
}

func (r *BookingReadStore) ListAllKeyset(ctx context.Context, lastCreatedAt time.Time, lastID uuid.UUID, limit int) ([]queries.BookingView, error) {
	return r.listViews(ctx, listBookingViewsKeyset, pgconv.TimeToPgtype(lastCreatedAt), pgconv.UUIDToPgtype(lastID), limit)
}

func (r *BookingReadStore) GetForUser(ctx context.Context, bookingID, userID uuid.UUID) (*queries.BookingView, error) {
	row := r.db.QueryRow(ctx, getBookingViewForUser, pgconv.UUIDToPgtype(bookingID), pgconv.UUIDToPgtype(userID))
	v, _, _, err := scanBookingView(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get booking", err)
	}
	return &v, nil
}

func (r *BookingReadStore) GetDetail(ctx context.Context, bookingID uuid.UUID) (*queries.BookingDetail, error) {
	v, prop, guest, err := scanBookingView(r.db.QueryRow(ctx, getBookingView, pgconv.UUIDToPgtype(bookingID)))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get booking detail", err)
	}

	rows, err := r.db.Query(ctx, listRefundsByBooking, pgconv.UUIDToPgtype(bookingID))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list refunds", err)
	}
	refunds, err := pgx.CollectRows(rows, scanRefundView)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan refunds", err)
	}

	detail := &queries.BookingDetail{
		Booking:  v,
		Property: queries.PropertySummary{ID: v.PropertyID},
		Guest:    user.NewContact(v.UserID, "", "", "", ""),
		Refunds:  refunds,
	}
	if prop != nil {
		detail.Property = *prop
	}
	if guest != nil {
		detail.Guest = *guest
	}
	return detail, nil
}

func (r *BookingReadStore) YearSequence(ctx context.Context, bookingID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, bookingYearSequence, pgconv.UUIDToPgtype(bookingID)).Scan(&n); err != nil {
		return 0, infra.WrapRepoErr("failed to compute booking sequence", err)
	}
	if n == 0 {
		return 0, infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	return n, nil
}

func (r *BookingReadStore) listViews(ctx context.Context, sql string, args ...any) ([]queries.BookingView, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (queries.BookingView, error) {
		v, _, _, err := scanBookingView(row)
		return v, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan bookings", err)
	}
	return views, nil
}

type bookingRow struct {
	id, propertyID, userID, hostID pgtype.UUID
	checkIn, checkOut              pgtype.Date
	paidAt, cancelledAt            pgtype.Timestamptz
	createdAt, updatedAt           pgtype.Timestamptz
	couponCode                     pgtype.Text
	p                              booking.ReconstructParams
}

func (b *bookingRow) targets() []any {
	return []any{
		&b.id, &b.propertyID, &b.userID, &b.hostID, &b.checkIn, &b.checkOut, &b.p.Guests,
		&b.p.TotalPrice, &b.p.Status, &b.p.PaymentStatus, &b.p.OrderID, &b.p.PaymentID, &b.p.Signature,
		&b.p.PaymentMethod, &b.paidAt, &b.couponCode, &b.p.CouponDiscount, &b.p.CancellationReason,
		&b.cancelledAt, &b.createdAt, &b.updatedAt,
	}
}

func (b *bookingRow) toDomain() (*booking.Booking, error) {
	b.p.ID = pgconv.UUIDFromPgtype(b.id)
	b.p.PropertyID = pgconv.UUIDFromPgtype(b.propertyID)
	b.p.UserID = pgconv.UUIDFromPgtype(b.userID)
	b.p.HostID = pgconv.UUIDPtrFromPgtype(b.hostID)
	b.p.CheckIn = pgconv.DateFromPgtype(b.checkIn)
	b.p.CheckOut = pgconv.DateFromPgtype(b.checkOut)
	b.p.PaidAt = b.paidAt.Time.UTC()
	b.p.CouponCode = pgconv.StringPtrFromPgtype(b.couponCode)
	b.p.CancelledAt = pgconv.TimePtrFromPgtype(b.cancelledAt)
	b.p.CreatedAt = b.createdAt.Time.UTC()
	b.p.UpdatedAt = b.updatedAt.Time.UTC()
	return booking.Reconstruct(b.p)
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var br bookingRow
	if err := row.Scan(br.targets()...); err != nil {
		return nil, err
	}
	return br.toDomain()
}

// scanBookingView returns nil summaries when the joined rows are absent.
func scanBookingView(row pgx.Row) (queries.BookingView, *queries.PropertySummary, *user.Contact, error) {
	var (
		br                bookingRow
		propID, propHost  pgtype.UUID
		title, line, city pgtype.Text
		state, pincode    pgtype.Text
		userID            pgtype.UUID
		first, last       pgtype.Text
		email, mobile     pgtype.Text
	)
	targets := append(br.targets(),
		&propID, &propHost, &title, &line, &city, &state, &pincode,
		&userID, &first, &last, &email, &mobile,
	)
	if err := row.Scan(targets...); err != nil {
		return queries.BookingView{}, nil, nil, err
	}
	b, err := br.toDomain()
	if err != nil {
		return queries.BookingView{}, nil, nil, err
	}

	var prop *queries.PropertySummary
	if propID.Valid {
		addr := property.Address{Line: line.String, City: city.String, State: state.String, Pincode: pincode.String}
		prop = &queries.PropertySummary{
			ID:      pgconv.UUIDFromPgtype(propID),
			HostID:  pgconv.UUIDPtrFromPgtype(propHost),
			Title:   title.String,
			Address: addr.String(),
		}
	}
	var guest *user.Contact
	if userID.Valid {
		c := user.NewContact(pgconv.UUIDFromPgtype(userID), first.String, last.String, email.String, mobile.String)
		guest = &c
	}
	return queries.NewBookingView(b, prop, guest), prop, guest, nil
}

func scanRefundView(row pgx.CollectableRow) (queries.RefundView, error) {
	var (
		id, bookingID, propertyID, userID pgtype.UUID
		p                                 refund.Params
		amount                            int64
		status                            string
		notes                             []byte
		referenceID                       pgtype.Text
		createdAt, processedAt            pgtype.Timestamptz
	)
	if err := row.Scan(&id, &bookingID, &propertyID, &userID, &p.GatewayRefundID, &p.PaymentID, &amount,
		&p.Currency, &status, &notes, &referenceID, &createdAt, &processedAt); err != nil {
		return queries.RefundView{}, err
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &p.Notes); err != nil {
			return queries.RefundView{}, err
		}
	}
	money, err := booking.NewMoney(amount)
	if err != nil {
		return queries.RefundView{}, err
	}
	p.ID = pgconv.UUIDFromPgtype(id)
	p.BookingID = pgconv.UUIDFromPgtype(bookingID)
	p.PropertyID = pgconv.UUIDFromPgtype(propertyID)
	p.UserID = pgconv.UUIDFromPgtype(userID)
	p.Amount = money
	p.Status = refund.Status(status)
	p.ReferenceID = pgconv.StringPtrFromPgtype(referenceID)
	p.CreatedAt = createdAt.Time.UTC()
	p.ProcessedAt = pgconv.TimePtrFromPgtype(processedAt)

	rf, err := refund.New(p)
	if err != nil {
		return queries.RefundView{}, err
	}
	return queries.NewRefundView(rf), nil
}

