package memstore

import (
	"context"
	"sort"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/domain/refund"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/infra"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

// stateReads reads a state the caller already guards.
type stateReads struct {
	st *state
}

func (r stateReads) PropertyByID(_ context.Context, id uuid.UUID) (*property.Property, error) {
	p, ok := r.st.properties[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "property not found")
	}
	p.BookedDates = r.st.ledger[id]
	return property.New(p)
}

func (r stateReads) BookingForUser(_ context.Context, bookingID, userID uuid.UUID) (*booking.Booking, error) {
	b, ok := r.st.bookings[bookingID]
	if !ok || b.UserID != userID {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	return booking.Reconstruct(b)
}

func (r stateReads) BookingByPaymentID(_ context.Context, paymentID string) (*booking.Booking, error) {
	for _, b := range r.st.bookings {
		if b.PaymentID == paymentID {
			return booking.Reconstruct(b)
		}
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
}

func (r stateReads) PlatformCouponByCode(_ context.Context, code coupon.Code) (*coupon.Coupon, error) {
	return r.couponByCode(code, coupon.ScopePlatform)
}

func (r stateReads) HostCouponByCode(_ context.Context, code coupon.Code) (*coupon.Coupon, error) {
	return r.couponByCode(code, coupon.ScopeHost)
}

func (r stateReads) couponByCode(code coupon.Code, scope coupon.Scope) (*coupon.Coupon, error) {
	for _, c := range r.st.coupons {
		if c.Scope == scope && c.Code == code.String() {
			return coupon.Reconstruct(c), nil
		}
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "coupon not found")
}

func (r stateReads) CouponByID(_ context.Context, id uuid.UUID) (*coupon.Coupon, error) {
	c, ok := r.st.coupons[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "coupon not found")
	}
	return coupon.Reconstruct(c), nil
}

// lockedReads reads the committed state outside transactions.
type lockedReads struct {
	store *Store
}

func (r *lockedReads) PropertyByID(ctx context.Context, id uuid.UUID) (p *property.Property, err error) {
	err = r.store.view(func(st *state) error {
		p, err = stateReads{st: st}.PropertyByID(ctx, id)
		return err
	})
	return p, err
}

func (r *lockedReads) BookingForUser(ctx context.Context, bookingID, userID uuid.UUID) (b *booking.Booking, err error) {
	err = r.store.view(func(st *state) error {
		b, err = stateReads{st: st}.BookingForUser(ctx, bookingID, userID)
		return err
	})
	return b, err
}

func (r *lockedReads) BookingByPaymentID(ctx context.Context, paymentID string) (b *booking.Booking, err error) {
	err = r.store.view(func(st *state) error {
		b, err = stateReads{st: st}.BookingByPaymentID(ctx, paymentID)
		return err
	})
	return b, err
}

func (r *lockedReads) PlatformCouponByCode(ctx context.Context, code coupon.Code) (c *coupon.Coupon, err error) {
	err = r.store.view(func(st *state) error {
		c, err = stateReads{st: st}.PlatformCouponByCode(ctx, code)
		return err
	})
	return c, err
}

func (r *lockedReads) HostCouponByCode(ctx context.Context, code coupon.Code) (c *coupon.Coupon, err error) {
	err = r.store.view(func(st *state) error {
		c, err = stateReads{st: st}.HostCouponByCode(ctx, code)
		return err
	})
	return c, err
}

func (r *lockedReads) CouponByID(ctx context.Context, id uuid.UUID) (c *coupon.Coupon, err error) {
	err = r.store.view(func(st *state) error {
		c, err = stateReads{st: st}.CouponByID(ctx, id)
		return err
	})
	return c, err
}

// BookingReadStore serves the booking query side.
type BookingReadStore struct {
	store *Store
}

func (s *Store) BookingReadStore() *BookingReadStore {
	return &BookingReadStore{store: s}
}

func (r *BookingReadStore) ListByUser(_ context.Context, userID uuid.UUID) ([]queries.BookingView, error) {
	return r.list(func(b booking.ReconstructParams) bool { return b.UserID == userID }, 0)
}

func (r *BookingReadStore) ListByHost(_ context.Context, hostID uuid.UUID) ([]queries.BookingView, error) {
	return r.list(func(b booking.ReconstructParams) bool { return b.HostID != nil && *b.HostID == hostID }, 0)
}

func (r *BookingReadStore) ListAllFirstPage(_ context.Context, limit int) ([]queries.BookingView, error) {
	return r.list(func(booking.ReconstructParams) bool { return true }, limit)
}

func (r *BookingReadStore) ListAllKeyset(_ context.Context, lastCreatedAt time.Time, lastID uuid.UUID, limit int) ([]queries.BookingView, error) {
	return r.list(func(b booking.ReconstructParams) bool {
		return isBefore(b.CreatedAt, b.ID, lastCreatedAt, lastID)
	}, limit)
}

func (r *BookingReadStore) GetForUser(_ context.Context, bookingID, userID uuid.UUID) (*queries.BookingView, error) {
	var view *queries.BookingView
	err := r.store.view(func(st *state) error {
		p, ok := st.bookings[bookingID]
		if !ok || p.UserID != userID {
			return infra.NewRepoErr(infra.KindNotFound, "booking not found")
		}
		v, err := toView(st, p)
		if err != nil {
			return err
		}
		view = &v
		return nil
	})
	return view, err
}

func (r *BookingReadStore) GetDetail(_ context.Context, bookingID uuid.UUID) (*queries.BookingDetail, error) {
	var detail *queries.BookingDetail
	err := r.store.view(func(st *state) error {
		p, ok := st.bookings[bookingID]
		if !ok {
			return infra.NewRepoErr(infra.KindNotFound, "booking not found")
		}
		v, err := toView(st, p)
		if err != nil {
			return err
		}
		guest, ok := st.users[p.UserID]
		if !ok {
			guest = user.NewContact(p.UserID, "", "", "", "")
		}
		summary := queries.PropertySummary{ID: p.PropertyID}
		if s := summaryOf(st, p.PropertyID); s != nil {
			summary = *s
		}
		refunds := refundsFor(st, bookingID)
		views := make([]queries.RefundView, 0, len(refunds))
		for _, rf := range refunds {
			views = append(views, queries.NewRefundView(rf))
		}
		detail = &queries.BookingDetail{
			Booking:  v,
			Guest:    guest,
			Property: summary,
			Refunds:  views,
		}
		return nil
	})
	return detail, err
}

func (r *BookingReadStore) YearSequence(_ context.Context, bookingID uuid.UUID) (int, error) {
	seq := 0
	err := r.store.view(func(st *state) error {
		target, ok := st.bookings[bookingID]
		if !ok {
			return infra.NewRepoErr(infra.KindNotFound, "booking not found")
		}
		year := target.CreatedAt.UTC().Year()
		for _, b := range st.bookings {
			if b.CreatedAt.UTC().Year() == year && !isAfter(b, target) {
				seq++
			}
		}
		return nil
	})
	return seq, err
}

func (r *BookingReadStore) list(match func(booking.ReconstructParams) bool, limit int) ([]queries.BookingView, error) {
	var out []queries.BookingView
	err := r.store.view(func(st *state) error {
		rows := make([]booking.ReconstructParams, 0, len(st.bookings))
		for _, b := range st.bookings {
			if match(b) {
				rows = append(rows, b)
			}
		}
		sort.Slice(rows, func(i, j int) bool {
			return isBefore(rows[j].CreatedAt, rows[j].ID, rows[i].CreatedAt, rows[i].ID)
		})
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		out = make([]queries.BookingView, 0, len(rows))
		for _, b := range rows {
			v, err := toView(st, b)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// isBefore reports whether (t, id) is older than (lastT, lastID). Listings are
// newest first, so these rows follow the cursor.
func isBefore(t time.Time, id uuid.UUID, lastT time.Time, lastID uuid.UUID) bool {
	if !t.Equal(lastT) {
		return t.Before(lastT)
	}
	return id.String() < lastID.String()
}

// isAfter is true when b was created after target in (createdAt, id) order.
func isAfter(b, target booking.ReconstructParams) bool {
	if !b.CreatedAt.Equal(target.CreatedAt) {
		return b.CreatedAt.After(target.CreatedAt)
	}
	return b.ID.String() > target.ID.String()
}

func toView(st *state, p booking.ReconstructParams) (queries.BookingView, error) {
	b, err := booking.Reconstruct(p)
	if err != nil {
		return queries.BookingView{}, err
	}
	var guest *user.Contact
	if c, ok := st.users[p.UserID]; ok {
		guest = &c
	}
	return queries.NewBookingView(b, summaryOf(st, p.PropertyID), guest), nil
}

func summaryOf(st *state, propertyID uuid.UUID) *queries.PropertySummary {
	p, ok := st.properties[propertyID]
	if !ok {
		return nil
	}
	return &queries.PropertySummary{
		ID:      p.ID,
		HostID:  p.HostID,
		Title:   p.Title,
		Address: p.Address.String(),
	}
}

func refundsFor(st *state, bookingID uuid.UUID) []*refund.Refund {
	var out []*refund.Refund
	for _, rf := range st.refunds {
		if rf.BookingID() == bookingID {
			out = append(out, rf)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out
}

// CouponReadStore serves the coupon listings.
type CouponReadStore struct {
	store *Store
}

func (s *Store) CouponReadStore() *CouponReadStore {
	return &CouponReadStore{store: s}
}

func (r *CouponReadStore) ListPlatform(_ context.Context) ([]*coupon.Coupon, error) {
	return r.list(func(c coupon.ReconstructParams) bool { return c.Scope == coupon.ScopePlatform }), nil
}

func (r *CouponReadStore) ListByHost(_ context.Context, hostID uuid.UUID) ([]*coupon.Coupon, error) {
	return r.list(func(c coupon.ReconstructParams) bool {
		return c.Scope == coupon.ScopeHost && c.HostID != nil && *c.HostID == hostID
	}), nil
}

func (r *CouponReadStore) list(match func(coupon.ReconstructParams) bool) []*coupon.Coupon {
	var out []*coupon.Coupon
	_ = r.store.view(func(st *state) error {
		rows := make([]coupon.ReconstructParams, 0, len(st.coupons))
		for _, c := range st.coupons {
			if match(c) {
				rows = append(rows, c)
			}
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
		out = make([]*coupon.Coupon, 0, len(rows))
		for _, c := range rows {
			out = append(out, coupon.Reconstruct(c))
		}
		return nil
	})
	return out
}

var (
	_ shared.CommandReads      = stateReads{}
	_ queries.BookingReadStore = (*BookingReadStore)(nil)
	_ queries.CouponReadStore  = (*CouponReadStore)(nil)
)
