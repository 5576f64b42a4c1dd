//go:build unit

package commands_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/infra/lock"
	"villa-booking/internal/infra/memstore"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"
	"villa-booking/tests/common/builder"
	"villa-booking/tests/common/gatewaytest"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)

// fixture wires the commands against the in-memory store and the fake gateway.
type fixture struct {
	store         *memstore.Store
	gateway       *gatewaytest.Fake
	clock         *clock.MockClock
	property      property.Params
	pricing       queries.PricingQueries
	payments      commands.PaymentCommands
	reservations  commands.ReservationCommands
	cancellations commands.CancellationCommands
	coupons       commands.CouponCommands
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memstore.New(),
		gateway:  gatewaytest.New(),
		clock:    clock.NewMockClock(testNow),
		property: builder.NewPropertyBuilder().BuildParams(),
	}
	f.store.SeedProperty(f.property)

	locker := lock.NewLocalLocker(time.Second)
	f.pricing = queries.NewPricingQueries(f.store.CommandReads(), f.clock, "INR")
	f.payments = commands.NewPaymentCommands(f.store, f.pricing, f.gateway, f.clock, nil)
	f.reservations = commands.NewReservationCommands(f.store, f.gateway, locker, f.clock, nil)
	f.cancellations = commands.NewCancellationCommands(f.store, f.gateway, locker, f.clock, nil, "INR")
	f.coupons = commands.NewCouponCommands(f.store, f.clock)
	return f
}

// newBooking describes a mid-week stay on the fixture property.
func (f *fixture) newBooking() *builder.BookingBuilder {
	return builder.NewBookingBuilder().WithProperty(f.property.ID)
}

// pay opens the order b describes at the fake gateway and settles it in full.
func (f *fixture) pay(b *builder.BookingBuilder) *builder.BookingBuilder {
	b.OrderID = f.gateway.OpenOrder(b.OrderRequest())
	b.PaymentID, b.Signature = f.gateway.Pay(b.OrderID, b.TotalPrice)
	return b
}

func (f *fixture) paidBooking(amount int64) *builder.BookingBuilder {
	return f.pay(f.newBooking().WithTotal(amount))
}

// checkout goes through CreateOrder for b and pays the quoted amount.
func (f *fixture) checkout(t *testing.T, b *builder.BookingBuilder) *builder.BookingBuilder {
	t.Helper()
	order, err := f.payments.CreateOrder(context.Background(), b.CreateOrderParams())
	require.NoError(t, err)
	b.OrderID = order.OrderID
	b.PaymentID, b.Signature = f.gateway.Pay(order.OrderID, order.Amount)
	return b
}

func (f *fixture) reserve(t *testing.T, b *builder.BookingBuilder) *booking.Booking {
	t.Helper()
	res, err := f.reservations.VerifyAndReserve(context.Background(), b.VerifyParams())
	require.NoError(t, err)
	require.False(t, res.IsReplayed)
	return res.Booking
}

func (f *fixture) storedBooking(t *testing.T, b *booking.Booking) *booking.Booking {
	t.Helper()
	stored, err := f.store.CommandReads().BookingForUser(context.Background(), b.ID(), b.UserID())
	require.NoError(t, err)
	return stored
}

func jobPayload(t *testing.T, job shared.NotificationJob) shared.BookingJobPayload {
	t.Helper()
	var p shared.BookingJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	return p
}

func jobsWithTopic(jobs []shared.NotificationJob, topic string) []shared.NotificationJob {
	var out []shared.NotificationJob
	for _, j := range jobs {
		if j.Topic == topic {
			out = append(out, j)
		}
	}
	return out
}
