package readstore

import (
	"context"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const getPropertyByID = `
SELECT id, host_id, title, address_line, city, state, pincode, price, weekend_price, max_guests, is_active
FROM properties
WHERE id = $1`

const listBookedDates = `
SELECT booking_id, check_in, check_out
FROM property_booked_dates
WHERE property_id = $1
ORDER BY check_in`

const listBlockedDates = `
SELECT start_date, end_date
FROM property_blocked_dates
WHERE property_id = $1
ORDER BY start_date`

// PropertyReadStore loads properties together with their ledger and blocked ranges.
type PropertyReadStore struct {
	db db.DBTX
}

func NewPropertyReadStore(dbtx db.DBTX) *PropertyReadStore {
	return &PropertyReadStore{db: dbtx}
}

// FindByID loads the property. With forUpdate the row lock is held until the
// surrounding transaction ends, which serializes reservations per property.
func (r *PropertyReadStore) FindByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*property.Property, error) {
	query := getPropertyByID
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		pid    pgtype.UUID
		hostID pgtype.UUID
		p      property.Params
	)
	err := r.db.QueryRow(ctx, query, pgconv.UUIDToPgtype(id)).Scan(
		&pid, &hostID, &p.Title,
		&p.Address.Line, &p.Address.City, &p.Address.State, &p.Address.Pincode,
		&p.Price, &p.WeekendPrice, &p.MaxGuests, &p.IsActive,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("property not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find property", err)
	}
	p.ID = pgconv.UUIDFromPgtype(pid)
	p.HostID = pgconv.UUIDPtrFromPgtype(hostID)

	if p.BookedDates, err = r.bookedDates(ctx, id); err != nil {
		return nil, err
	}
	if p.BlockedDates, err = r.blockedDates(ctx, id); err != nil {
		return nil, err
	}

	prop, err := property.New(p)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid property row", err)
	}
	return prop, nil
}

func (r *PropertyReadStore) bookedDates(ctx context.Context, propertyID uuid.UUID) ([]property.BookedDate, error) {
	rows, err := r.db.Query(ctx, listBookedDates, pgconv.UUIDToPgtype(propertyID))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load booked dates", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (property.BookedDate, error) {
		var (
			bookingID         pgtype.UUID
			checkIn, checkOut pgtype.Date
		)
		if err := row.Scan(&bookingID, &checkIn, &checkOut); err != nil {
			return property.BookedDate{}, err
		}
		stay, err := booking.NewStayDates(pgconv.DateFromPgtype(checkIn), pgconv.DateFromPgtype(checkOut))
		if err != nil {
			return property.BookedDate{}, err
		}
		return property.BookedDate{BookingID: pgconv.UUIDFromPgtype(bookingID), Stay: stay}, nil
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan booked dates", err)
	}
	return entries, nil
}

func (r *PropertyReadStore) blockedDates(ctx context.Context, propertyID uuid.UUID) ([]booking.StayDates, error) {
	rows, err := r.db.Query(ctx, listBlockedDates, pgconv.UUIDToPgtype(propertyID))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load blocked dates", err)
	}
	ranges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (booking.StayDates, error) {
		var start, end pgtype.Date
		if err := row.Scan(&start, &end); err != nil {
			return booking.StayDates{}, err
		}
		return booking.NewStayDates(pgconv.DateFromPgtype(start), pgconv.DateFromPgtype(end))
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan blocked dates", err)
	}
	return ranges, nil
}
