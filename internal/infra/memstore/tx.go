package memstore

import (
	"context"
	"slices"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/domain/refund"
	"villa-booking/internal/infra"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type memTx struct {
	st *state
}

func (t *memTx) Bookings() shared.BookingRepository { return bookingRepo{st: t.st} }
func (t *memTx) Ledger() shared.LedgerRepository { return ledgerRepo{st: t.st} }
func (t *memTx) Refunds() shared.RefundRepository { return refundRepo{st: t.st} }
func (t *memTx) Coupons() shared.CouponRepository { return couponRepo{st: t.st} }
func (t *memTx) Notifications() shared.NotificationRepository { return notificationRepo{st: t.st} }
func (t *memTx) Reads() shared.CommandReads { return stateReads{st: t.st} }

type bookingRepo struct {
	st *state
}

func (r bookingRepo) Create(_ context.Context, b *booking.Booking) error {
	if _, ok := r.st.bookings[b.ID()]; ok {
		return infra.NewRepoErr(infra.KindDuplicateKey, "booking id already exists")
	}
	for _, existing := range r.st.bookings {
		if existing.PaymentID == b.Payment().PaymentID() {
			return infra.NewRepoErr(infra.KindDuplicateKey, "payment id already booked")
		}
	}
	r.st.own(tableBookings)
	r.st.bookings[b.ID()] = b.Snapshot()
	return nil
}

func (r bookingRepo) MarkCancelled(_ context.Context, b *booking.Booking) error {
	stored, ok := r.st.bookings[b.ID()]
	if !ok || stored.Status == booking.StatusCancelled.String() {
		return infra.NewRepoErr(infra.KindNotFound, "active booking not found")
	}
	r.st.own(tableBookings)
	r.st.bookings[b.ID()] = b.Snapshot()
	return nil
}

type ledgerRepo struct {
	st *state
}

func (r ledgerRepo) LockProperty(ctx context.Context, propertyID uuid.UUID) (*property.Property, error) {
	// The transaction already holds the store mutex.
	return stateReads{st: r.st}.PropertyByID(ctx, propertyID)
}

func (r ledgerRepo) Append(_ context.Context, propertyID uuid.UUID, entry property.BookedDate) error {
	if _, ok := r.st.properties[propertyID]; !ok {
		return infra.NewRepoErr(infra.KindForeignKeyViolated, "property does not exist")
	}
	if _, ok := r.st.bookings[entry.BookingID]; !ok {
		return infra.NewRepoErr(infra.KindForeignKeyViolated, "booking does not exist")
	}
	for _, entries := range r.st.ledger {
		for _, e := range entries {
			if e.BookingID == entry.BookingID {
				return infra.NewRepoErr(infra.KindDuplicateKey, "booking already holds dates")
			}
		}
	}
	for _, e := range r.st.ledger[propertyID] {
		if e.Stay.Overlaps(entry.Stay) {
			return infra.NewRepoErr(infra.KindExclusionViolated, "booked dates overlap")
		}
	}
	r.st.own(tableLedger)
	r.st.ledger[propertyID] = append(slices.Clip(r.st.ledger[propertyID]), entry)
	return nil
}

func (r ledgerRepo) Remove(_ context.Context, propertyID, bookingID uuid.UUID) (bool, error) {
	entries := r.st.ledger[propertyID]
	for i, e := range entries {
		if e.BookingID == bookingID {
			kept := make([]property.BookedDate, 0, len(entries)-1)
			kept = append(kept, entries[:i]...)
			kept = append(kept, entries[i+1:]...)
			r.st.own(tableLedger)
			r.st.ledger[propertyID] = kept
			return true, nil
		}
	}
	return false, nil
}

type refundRepo struct {
	st *state
}

func (r refundRepo) Create(_ context.Context, rf *refund.Refund) error {
	if _, ok := r.st.bookings[rf.BookingID()]; !ok {
		return infra.NewRepoErr(infra.KindForeignKeyViolated, "booking does not exist")
	}
	for _, existing := range r.st.refunds {
		if existing.GatewayRefundID() == rf.GatewayRefundID() {
			return infra.NewRepoErr(infra.KindDuplicateKey, "gateway refund already recorded")
		}
	}
	r.st.own(tableRefunds)
	r.st.refunds[rf.ID()] = rf
	return nil
}

type couponRepo struct {
	st *state
}

func (r couponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	for _, existing := range r.st.coupons {
		if existing.Code == c.Code().String() {
			return infra.NewRepoErr(infra.KindDuplicateKey, "coupon code already exists")
		}
	}
	r.st.own(tableCoupons)
	r.st.coupons[c.ID()] = c.Snapshot()
	return nil
}

func (r couponRepo) SetActive(_ context.Context, id uuid.UUID, active bool, at time.Time) error {
	c, ok := r.st.coupons[id]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "coupon not found")
	}
	c.IsActive = active
	c.UpdatedAt = at
	r.st.own(tableCoupons)
	r.st.coupons[id] = c
	return nil
}

func (r couponRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.st.coupons[id]; !ok {
		return infra.NewRepoErr(infra.KindNotFound, "coupon not found")
	}
	r.st.own(tableCoupons)
	delete(r.st.coupons, id)
	return nil
}

func (r couponRepo) IncrementUsage(_ context.Context, code coupon.Code) error {
	for id, c := range r.st.coupons {
		if c.Scope == coupon.ScopePlatform && c.Code == code.String() {
			c.UsageCount++
			r.st.own(tableCoupons)
			r.st.coupons[id] = c
			return nil
		}
	}
	return infra.NewRepoErr(infra.KindNotFound, "platform coupon not found")
}

type notificationRepo struct {
	st *state
}

func (r notificationRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	body := make([]byte, len(payload))
	copy(body, payload)
	id := uuid.New()
	r.st.own(tableJobs)
	r.st.jobs[id] = shared.NotificationJob{
		ID:        id,
		Kind:      kind,
		Topic:     topic,
		Payload:   body,
		Status:    shared.JobStatusQueued,
		RunAt:     runAt,
		CreatedAt: runAt,
		UpdatedAt: runAt,
	}
	return nil
}
