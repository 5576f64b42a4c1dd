package queries

import (
	"context"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type AvailabilityQueries interface {
	// Check evaluates the current ledger. The answer is advisory: reservation
	// re-checks under a lock before it writes.
	Check(ctx context.Context, propertyID uuid.UUID, stay booking.StayDates) (*Availability, error)
}

type availabilityQueriesImpl struct {
	reads shared.CommandReads
}

func NewAvailabilityQueries(reads shared.CommandReads) AvailabilityQueries {
	return &availabilityQueriesImpl{reads: reads}
}

func (q *availabilityQueriesImpl) Check(ctx context.Context, propertyID uuid.UUID, stay booking.StayDates) (*Availability, error) {
	prop, err := q.reads.PropertyByID(ctx, propertyID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrPropertyNotFound
		}
		return nil, errs.Wrap(err, "failed to load property")
	}
	return &Availability{
		PropertyID: propertyID,
		Stay:       stay,
		Available:  prop.IsAvailable(stay),
	}, nil
}
