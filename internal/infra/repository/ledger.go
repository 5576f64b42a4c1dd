package repository

import (
	"context"

	"villa-booking/internal/domain/property"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/infra/readstore"
	"villa-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
)

const appendBookedDates = `
INSERT INTO property_booked_dates (booking_id, property_id, check_in, check_out)
VALUES ($1, $2, $3, $4)`

const removeBookedDates = `
DELETE FROM property_booked_dates WHERE property_id = $1 AND booking_id = $2`

// LedgerRepository writes property_booked_dates. Overlaps are rejected by the
// table's exclusion constraint even if a caller skips the in-memory check.
type LedgerRepository struct {
	db         db.DBTX
	properties *readstore.PropertyReadStore
}

func NewLedgerRepository(dbtx db.DBTX) *LedgerRepository {
	return &LedgerRepository{
		db:         dbtx,
		properties: readstore.NewPropertyReadStore(dbtx),
	}
}

func (r *LedgerRepository) LockProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	return r.properties.FindByID(ctx, propertyID, true)
}

func (r *LedgerRepository) Append(ctx context.Context, propertyID uuid.UUID, entry property.BookedDate) error {
	_, err := r.db.Exec(ctx, appendBookedDates,
		pgconv.UUIDToPgtype(entry.BookingID),
		pgconv.UUIDToPgtype(propertyID),
		pgconv.DateToPgtype(entry.Stay.CheckIn()),
		pgconv.DateToPgtype(entry.Stay.CheckOut()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append booked dates", err)
	}
	return nil
}

func (r *LedgerRepository) Remove(ctx context.Context, propertyID, bookingID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, removeBookedDates, pgconv.UUIDToPgtype(propertyID), pgconv.UUIDToPgtype(bookingID))
	if err != nil {
		return false, infra.WrapRepoErr("failed to remove booked dates", err)
	}
	return tag.RowsAffected() > 0, nil
}
