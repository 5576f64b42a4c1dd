package property

import (
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrDatesUnavailable  = errs.Define("property is not available for the selected dates", errs.ErrConflict)
	ErrDuplicateBooking  = errs.Define("booking already holds dates on this property", errs.ErrConflict)
	ErrTooManyGuests     = errs.Define("number of guests exceeds the property capacity", errs.ErrValidation)
	ErrPropertyNotListed = errs.Define("property is not accepting bookings", errs.ErrConflict)
)

// BookedDate is one ledger entry. Entries are addressed by booking id.
type BookedDate struct {
	BookingID uuid.UUID
	Stay      booking.StayDates
}

type Address struct {
	Line    string
	City    string
	State   string
	Pincode string
}

func (a Address) String() string {
	out := a.Line
	for _, part := range []string{a.City, a.State, a.Pincode} {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}

// Property is the catalog view consumed by booking. It owns the booked-dates ledger.
type Property struct {
	id           uuid.UUID
	hostID       *uuid.UUID
	title        string
	address      Address
	price        booking.Money
	weekendPrice booking.Money
	maxGuests    int
	isActive     bool
	bookedDates  []BookedDate
	blockedDates []booking.StayDates
}

type Params struct {
	ID           uuid.UUID
	HostID       *uuid.UUID
	Title        string
	Address      Address
	Price        int64
	WeekendPrice int64
	MaxGuests    int
	IsActive     bool
	BookedDates  []BookedDate
	BlockedDates []booking.StayDates
}

func New(p Params) (*Property, error) {
	price, err := booking.NewMoney(p.Price)
	if err != nil {
		return nil, err
	}
	weekend, err := booking.NewMoney(p.WeekendPrice)
	if err != nil {
		return nil, err
	}
	ledger := make([]BookedDate, len(p.BookedDates))
	copy(ledger, p.BookedDates)
	blocked := make([]booking.StayDates, len(p.BlockedDates))
	copy(blocked, p.BlockedDates)
	return &Property{
		id:           p.ID,
		hostID:       p.HostID,
		title:        p.Title,
		address:      p.Address,
		price:        price,
		weekendPrice: weekend,
		maxGuests:    p.MaxGuests,
		isActive:     p.IsActive,
		bookedDates:  ledger,
		blockedDates: blocked,
	}, nil
}

// IsAvailable reports whether no ledger entry or blocked range overlaps stay.
func (p *Property) IsAvailable(stay booking.StayDates) bool {
	for _, e := range p.bookedDates {
		if e.Stay.Overlaps(stay) {
			return false
		}
	}
	for _, b := range p.blockedDates {
		if b.Overlaps(stay) {
			return false
		}
	}
	return true
}

// Reserve appends a ledger entry if and only if the range is still free.
func (p *Property) Reserve(bookingID uuid.UUID, stay booking.StayDates) error {
	for _, e := range p.bookedDates {
		if e.BookingID == bookingID {
			return ErrDuplicateBooking
		}
	}
	if !p.IsAvailable(stay) {
		return ErrDatesUnavailable
	}
	p.bookedDates = append(p.bookedDates, BookedDate{BookingID: bookingID, Stay: stay})
	return nil
}

// Release removes the entry held by bookingID and reports whether one existed.
func (p *Property) Release(bookingID uuid.UUID) bool {
	for i, e := range p.bookedDates {
		if e.BookingID == bookingID {
			p.bookedDates = append(p.bookedDates[:i], p.bookedDates[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Property) CheckGuests(guests int) error {
	if guests < 1 {
		return booking.ErrInvalidGuests
	}
	if p.maxGuests > 0 && guests > p.maxGuests {
		return ErrTooManyGuests
	}
	return nil
}

// NightlyRate is the weekend price for Friday and Saturday nights when one is set.
func (p *Property) NightlyRate(night time.Time) booking.Money {
	switch night.Weekday() {
	case time.Friday, time.Saturday:
		if !p.weekendPrice.IsZero() {
			return p.weekendPrice
		}
	}
	return p.price
}

func (p *Property) BasePrice(stay booking.StayDates) booking.Money {
	var total booking.Money
	stay.EachNight(func(night time.Time) {
		total = total.Add(p.NightlyRate(night))
	})
	return total
}

func (p *Property) IsOwnedBy(hostID uuid.UUID) bool {
	return p.hostID != nil && *p.hostID == hostID
}

func (p *Property) BookedDates() []BookedDate {
	out := make([]BookedDate, len(p.bookedDates))
	copy(out, p.bookedDates)
	return out
}

func (p *Property) BlockedDates() []booking.StayDates {
	out := make([]booking.StayDates, len(p.blockedDates))
	copy(out, p.blockedDates)
	return out
}

func (p *Property) ID() uuid.UUID { return p.id }
func (p *Property) HostID() *uuid.UUID { return p.hostID }
func (p *Property) Title() string { return p.title }
func (p *Property) Address() Address { return p.address }
func (p *Property) Price() booking.Money { return p.price }
func (p *Property) WeekendPrice() booking.Money { return p.weekendPrice }
func (p *Property) MaxGuests() int { return p.maxGuests }
func (p *Property) IsActive() bool { return p.isActive }
