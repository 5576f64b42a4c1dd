// Package memstore is an in-process implementation of the unit of work, the read
// stores and the notification outbox. It backs tests and the memory store driver.
package memstore

import (
	"context"
	"maps"
	"sync"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/domain/refund"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

// table flags one map of the state.
type table uint8

const (
	tableUsers table = 1 << iota
	tableProperties
	tableLedger
	tableBookings
	tableRefunds
	tableCoupons
	tableJobs
)

type state struct {
	users      map[uuid.UUID]user.Contact
	properties map[uuid.UUID]property.Params
	ledger     map[uuid.UUID][]property.BookedDate
	bookings   map[uuid.UUID]booking.ReconstructParams
	refunds    map[uuid.UUID]*refund.Refund
	coupons    map[uuid.UUID]coupon.ReconstructParams
	jobs       map[uuid.UUID]shared.NotificationJob

	// owned marks the tables this state may write. The others are shared with
	// the committed state it was forked from.
	owned table
}

func newState() *state {
	return &state{
		users:      map[uuid.UUID]user.Contact{},
		properties: map[uuid.UUID]property.Params{},
		ledger:     map[uuid.UUID][]property.BookedDate{},
		bookings:   map[uuid.UUID]booking.ReconstructParams{},
		refunds:    map[uuid.UUID]*refund.Refund{},
		coupons:    map[uuid.UUID]coupon.ReconstructParams{},
		jobs:       map[uuid.UUID]shared.NotificationJob{},
	}
}

// fork returns a working copy that shares every table until own is called.
func (s *state) fork() *state {
	c := *s
	c.owned = 0
	return &c
}

// own copies table t before its first write. Stored values are immutable
// snapshots and ledger slices are never appended in place, so a shallow map
// copy is enough.
func (s *state) own(t table) {
	if s.owned&t != 0 {
		return
	}
	s.owned |= t
	switch t {
	case tableUsers:
		s.users = maps.Clone(s.users)
	case tableProperties:
		s.properties = maps.Clone(s.properties)
	case tableLedger:
		s.ledger = maps.Clone(s.ledger)
	case tableBookings:
		s.bookings = maps.Clone(s.bookings)
	case tableRefunds:
		s.refunds = maps.Clone(s.refunds)
	case tableCoupons:
		s.coupons = maps.Clone(s.coupons)
	case tableJobs:
		s.jobs = maps.Clone(s.jobs)
	}
}

// Store serializes transactions with a single mutex. A transaction works on a fork
// of the state that replaces the committed state only when fn succeeds; a write
// copies just the tables it touches. Every map is still scanned linearly, so the
// store suits tests and local development, not production traffic.
type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.state.fork()
	if err := fn(ctx, &memTx{st: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *Store) CommandReads() shared.CommandReads {
	return &lockedReads{store: s}
}

// view runs fn against the committed state.
func (s *Store) view(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *Store) update(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.fork()
	if err := fn(working); err != nil {
		return err
	}
	s.state = working
	return nil
}

// SeedUser registers a contact in the identity view.
func (s *Store) SeedUser(c user.Contact) {
	_ = s.update(func(st *state) error {
		st.own(tableUsers)
		st.users[c.ID()] = c
		return nil
	})
}

// SeedProperty registers a catalog property. BookedDates become ledger entries.
func (s *Store) SeedProperty(p property.Params) {
	_ = s.update(func(st *state) error {
		entries := make([]property.BookedDate, len(p.BookedDates))
		copy(entries, p.BookedDates)
		p.BookedDates = nil
		st.own(tableProperties)
		st.own(tableLedger)
		st.properties[p.ID] = p
		st.ledger[p.ID] = entries
		return nil
	})
}

// DeleteProperty removes a property from the catalog while keeping its bookings.
func (s *Store) DeleteProperty(id uuid.UUID) {
	_ = s.update(func(st *state) error {
		st.own(tableProperties)
		st.own(tableLedger)
		delete(st.properties, id)
		delete(st.ledger, id)
		return nil
	})
}

// SeedCoupon stores a coupon without uniqueness checks.
func (s *Store) SeedCoupon(c *coupon.Coupon) {
	_ = s.update(func(st *state) error {
		st.own(tableCoupons)
		st.coupons[c.ID()] = c.Snapshot()
		return nil
	})
}

// Jobs returns every outbox row.
func (s *Store) Jobs() []shared.NotificationJob {
	var out []shared.NotificationJob
	_ = s.view(func(st *state) error {
		out = sortedJobs(st.jobs)
		return nil
	})
	return out
}

// Refunds returns the refunds recorded for a booking.
func (s *Store) Refunds(bookingID uuid.UUID) []*refund.Refund {
	var out []*refund.Refund
	_ = s.view(func(st *state) error {
		out = refundsFor(st, bookingID)
		return nil
	})
	return out
}

// LedgerOf returns the booked-dates ledger of a property.
func (s *Store) LedgerOf(propertyID uuid.UUID) []property.BookedDate {
	var out []property.BookedDate
	_ = s.view(func(st *state) error {
		out = make([]property.BookedDate, len(st.ledger[propertyID]))
		copy(out, st.ledger[propertyID])
		return nil
	})
	return out
}

var _ shared.UnitOfWork = (*Store)(nil)
