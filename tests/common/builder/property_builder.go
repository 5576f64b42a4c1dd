//go:build unit || e2e

package builder

import (
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/property"

	"github.com/google/uuid"
)

// Reference week used across tests: 2025-06-02 is a Monday.
var (
	Monday    = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	Wednesday = Monday.AddDate(0, 0, 2)
	Friday    = Monday.AddDate(0, 0, 4)
	Sunday    = Monday.AddDate(0, 0, 6)
)

// Stay builds a stay or panics. Tests pass valid ranges only.
func Stay(checkIn, checkOut time.Time) booking.StayDates {
	s, err := booking.NewStayDates(checkIn, checkOut)
	if err != nil {
		panic(err)
	}
	return s
}

type PropertyBuilder struct {
	ID           uuid.UUID
	HostID       *uuid.UUID
	Title        string
	Address      property.Address
	Price        int64
	WeekendPrice int64
	MaxGuests    int
	IsActive     bool
	BookedDates  []property.BookedDate
	BlockedDates []booking.StayDates
}

func NewPropertyBuilder() *PropertyBuilder {
	hostID := uuid.New()
	return &PropertyBuilder{
		ID:     uuid.New(),
		HostID: &hostID,
		Title:  "Sea View Villa",
		Address: property.Address{
			Line:    "12 Beach Road",
			City:    "Goa",
			State:   "Goa",
			Pincode: "403001",
		},
		Price:     500000,
		MaxGuests: 6,
		IsActive:  true,
	}
}

func (b *PropertyBuilder) With(mutate func(*PropertyBuilder)) *PropertyBuilder {
	mutate(b)
	return b
}

func (b *PropertyBuilder) WithPrice(price int64) *PropertyBuilder {
	b.Price = price
	return b
}

func (b *PropertyBuilder) WithWeekendPrice(price int64) *PropertyBuilder {
	b.WeekendPrice = price
	return b
}

func (b *PropertyBuilder) WithMaxGuests(n int) *PropertyBuilder {
	b.MaxGuests = n
	return b
}

func (b *PropertyBuilder) WithHost(hostID uuid.UUID) *PropertyBuilder {
	b.HostID = &hostID
	return b
}

func (b *PropertyBuilder) WithBooked(bookingID uuid.UUID, stay booking.StayDates) *PropertyBuilder {
	b.BookedDates = append(b.BookedDates, property.BookedDate{BookingID: bookingID, Stay: stay})
	return b
}

func (b *PropertyBuilder) WithBlocked(stay booking.StayDates) *PropertyBuilder {
	b.BlockedDates = append(b.BlockedDates, stay)
	return b
}

func (b *PropertyBuilder) AsInactive() *PropertyBuilder {
	b.IsActive = false
	return b
}

func (b *PropertyBuilder) BuildParams() property.Params {
	return property.Params{
		ID:           b.ID,
		HostID:       b.HostID,
		Title:        b.Title,
		Address:      b.Address,
		Price:        b.Price,
		WeekendPrice: b.WeekendPrice,
		MaxGuests:    b.MaxGuests,
		IsActive:     b.IsActive,
		BookedDates:  b.BookedDates,
		BlockedDates: b.BlockedDates,
	}
}

func (b *PropertyBuilder) BuildDomain() (*property.Property, error) {
	return property.New(b.BuildParams())
}
