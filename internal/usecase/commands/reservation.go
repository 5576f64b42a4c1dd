package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/coupon"
	"villa-booking/internal/domain/property"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type AppliedCoupon struct {
	Code     string
	Discount booking.Money
}

type VerifyParams struct {
	OrderID    string
	PaymentID  string
	Signature  string
	PropertyID uuid.UUID
	UserID     uuid.UUID
	Stay       booking.StayDates
	Guests     int
	// Coupon is the client's view of the applied coupon. It must agree with the
	// order's coupon when the order has one; stored details always come from the order.
	Coupon *AppliedCoupon
}

type ReserveResult struct {
	Booking *booking.Booking
	// IsReplayed is set when the payment was already booked by the same user.
	IsReplayed bool
}

type ReservationCommands interface {
	// VerifyAndReserve checks the payment proof and atomically books the dates.
	// Nothing is written unless every check passes.
	VerifyAndReserve(ctx context.Context, params VerifyParams) (*ReserveResult, error)
}

type reservationCommandsImpl struct {
	uow     shared.UnitOfWork
	gateway PaymentGateway
	locker  Locker
	clock   clock.Clock
	metrics *metrics.Recorder
	newID   func() uuid.UUID
}

func NewReservationCommands(
	uow shared.UnitOfWork,
	gateway PaymentGateway,
	locker Locker,
	clk clock.Clock,
	rec *metrics.Recorder,
) ReservationCommands {
	return &reservationCommandsImpl{
		uow:     uow,
		gateway: gateway,
		locker:  locker,
		clock:   clk,
		metrics: rec,
		newID:   uuid.New,
	}
}

func (r *reservationCommandsImpl) VerifyAndReserve(ctx context.Context, params VerifyParams) (*ReserveResult, error) {
	result, err := r.verifyAndReserve(ctx, params)
	switch {
	case err != nil:
		r.metrics.Reservation(outcomeOf(err))
	case result.IsReplayed:
		r.metrics.Reservation("replayed")
	default:
		r.metrics.Reservation("confirmed")
	}
	return result, err
}

func (r *reservationCommandsImpl) verifyAndReserve(ctx context.Context, params VerifyParams) (*ReserveResult, error) {
	if err := validateVerifyParams(params); err != nil {
		return nil, err
	}

	if !r.gateway.VerifySignature(params.OrderID, params.PaymentID, params.Signature) {
		slog.Warn("payment signature mismatch", "order_id", params.OrderID, "payment_id", params.PaymentID)
		return nil, ErrInvalidSignature
	}

	payment, err := r.fetchPayment(ctx, params)
	if err != nil {
		return nil, err
	}
	terms, err := r.fetchOrderTerms(ctx, params, payment)
	if err != nil {
		return nil, err
	}

	details, err := booking.NewPaymentDetails(params.OrderID, params.PaymentID, params.Signature, payment.Method, r.paidAt(payment))
	if err != nil {
		return nil, err
	}
	total, err := booking.NewMoney(payment.Amount)
	if err != nil {
		return nil, err
	}
	// The coupon is the one priced into the order, never the client's claim.
	var couponDetails *booking.CouponDetails
	if terms.couponCode != "" {
		cd, err := booking.NewCouponDetails(terms.couponCode, terms.discount, total)
		if err != nil {
			return nil, err
		}
		couponDetails = &cd
	}

	// The payment is verified; from here the reservation runs to completion even if
	// the client goes away.
	ctx = context.WithoutCancel(ctx)

	lockStarted := time.Now()
	release, err := r.locker.Acquire(ctx, propertyLockKey(params.PropertyID.String()))
	r.metrics.LockWait(lockStarted)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "acquire property lock"), ErrResourceBusy)
	}
	defer release()

	// Checked under the lock so a retried verify for the same payment replays
	// instead of racing the first attempt.
	existing, err := r.existingBooking(ctx, params)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &ReserveResult{Booking: existing, IsReplayed: true}, nil
	}
	if field := terms.mismatch(params); field != "" {
		slog.Warn("verify request does not match the paid order",
			"order_id", params.OrderID,
			"payment_id", params.PaymentID,
			"field", field)
		return nil, ErrOrderTermsMismatch
	}

	var created *booking.Booking
	err = r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		prop, err := tx.Ledger().LockProperty(ctx, params.PropertyID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return queries.ErrPropertyNotFound
			}
			return errs.Wrap(err, "failed to lock property")
		}
		if !prop.IsActive() {
			return property.ErrPropertyNotListed
		}
		if err := prop.CheckGuests(params.Guests); err != nil {
			return err
		}

		b, err := booking.NewConfirmed(r.newID(), booking.ConfirmParams{
			PropertyID: prop.ID(),
			UserID:     params.UserID,
			HostID:     prop.HostID(),
			Stay:       params.Stay,
			Guests:     params.Guests,
			TotalPrice: total,
			Payment:    details,
			Coupon:     couponDetails,
		}, r.clock.Now())
		if err != nil {
			return err
		}

		if err := prop.Reserve(b.ID(), b.Stay()); err != nil {
			return err
		}

		if err := tx.Bookings().Create(ctx, b); err != nil {
			if infra.IsKind(err, infra.KindDuplicateKey) {
				return ErrPaymentAlreadyUsed
			}
			return errs.Wrap(err, "failed to create booking")
		}
		entry := property.BookedDate{BookingID: b.ID(), Stay: b.Stay()}
		if err := tx.Ledger().Append(ctx, prop.ID(), entry); err != nil {
			if infra.IsKind(err, infra.KindExclusionViolated) {
				return property.ErrDatesUnavailable
			}
			return errs.Wrap(err, "failed to append booked dates")
		}

		if couponDetails != nil {
			if err := r.recordCouponUsage(ctx, tx, couponDetails.Code()); err != nil {
				return err
			}
		}

		if err := enqueueBookingJobs(ctx, tx, shared.TopicBookingConfirmed, shared.BookingJobPayload{BookingID: b.ID()}, r.clock.Now()); err != nil {
			return err
		}

		created = b
		return nil
	})
	if err != nil {
		if errs.Is(err, property.ErrDatesUnavailable) {
			// The customer has paid but the dates were taken in the meantime.
			slog.Error("paid reservation rejected, dates no longer available",
				"payment_id", params.PaymentID,
				"property_id", params.PropertyID,
				"stay", params.Stay.String())
		}
		return nil, err
	}

	slog.Info("booking confirmed",
		"booking_id", created.ID(),
		"property_id", created.PropertyID(),
		"user_id", created.UserID(),
		"payment_id", params.PaymentID,
		"stay", created.Stay().String())

	return &ReserveResult{Booking: created}, nil
}

func validateVerifyParams(p VerifyParams) error {
	if strings.TrimSpace(p.OrderID) == "" || strings.TrimSpace(p.PaymentID) == "" || strings.TrimSpace(p.Signature) == "" {
		return booking.ErrIncompletePayment
	}
	if p.PropertyID == uuid.Nil || p.UserID == uuid.Nil {
		return ErrMissingField
	}
	if p.Stay.Nights() < 1 {
		return booking.ErrInvalidStayDates
	}
	if p.Guests < 1 {
		return booking.ErrInvalidGuests
	}
	return nil
}

func (r *reservationCommandsImpl) fetchPayment(ctx context.Context, params VerifyParams) (*GatewayPayment, error) {
	started := time.Now()
	payment, err := r.gateway.FetchPayment(ctx, params.PaymentID)
	r.metrics.GatewayCall("fetch_payment", started, err)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "gateway fetch payment"), ErrPaymentProvider)
	}
	if payment.OrderID != "" && payment.OrderID != params.OrderID {
		return nil, ErrOrderMismatch
	}
	switch payment.Status {
	case "failed", "created":
		return nil, ErrPaymentNotCaptured
	}
	return payment, nil
}

// fetchOrderTerms reads back the order the payment settled. The captured amount
// must be the order amount.
func (r *reservationCommandsImpl) fetchOrderTerms(ctx context.Context, params VerifyParams, payment *GatewayPayment) (orderTerms, error) {
	started := time.Now()
	order, err := r.gateway.FetchOrder(ctx, params.OrderID)
	r.metrics.GatewayCall("fetch_order", started, err)
	if err != nil {
		return orderTerms{}, errs.Mark(errs.Wrap(err, "gateway fetch order"), ErrPaymentProvider)
	}
	if order.Amount != payment.Amount {
		slog.Warn("captured amount differs from order amount",
			"order_id", params.OrderID,
			"payment_id", params.PaymentID,
			"order_amount", order.Amount,
			"captured_amount", payment.Amount)
		return orderTerms{}, ErrOrderTermsMismatch
	}
	terms, err := parseOrderNotes(order.Notes)
	if err != nil {
		slog.Warn("order notes unreadable", "order_id", params.OrderID, "error", err)
		return orderTerms{}, ErrOrderTermsMismatch
	}
	return terms, nil
}

// existingBooking makes verify idempotent per payment id.
func (r *reservationCommandsImpl) existingBooking(ctx context.Context, params VerifyParams) (*booking.Booking, error) {
	b, err := r.uow.CommandReads().BookingByPaymentID(ctx, params.PaymentID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, errs.Wrap(err, "failed to look up booking by payment")
	}
	if !b.IsOwnedBy(params.UserID) || b.PropertyID() != params.PropertyID {
		return nil, ErrPaymentAlreadyUsed
	}
	return b, nil
}

func (r *reservationCommandsImpl) paidAt(p *GatewayPayment) time.Time {
	if p.CreatedAt.IsZero() {
		return r.clock.Now()
	}
	return p.CreatedAt.UTC()
}

// recordCouponUsage bumps platform coupon usage. Host coupons carry no counter.
func (r *reservationCommandsImpl) recordCouponUsage(ctx context.Context, tx shared.Tx, code string) error {
	cc, err := coupon.NewCouponCode(code)
	if err != nil {
		// Codes stored on bookings are informational; an unknown format has no counter.
		return nil
	}
	if err := tx.Coupons().IncrementUsage(ctx, cc); err != nil && !infra.IsKind(err, infra.KindNotFound) {
		return errs.Wrap(err, "failed to record coupon usage")
	}
	return nil
}

func enqueueBookingJobs(ctx context.Context, tx shared.Tx, topic string, payload shared.BookingJobPayload, runAt time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Wrap(err, "failed to marshal job payload")
	}
	for _, kind := range []string{shared.JobKindEmail, shared.JobKindEvent} {
		if err := tx.Notifications().CreateJob(ctx, kind, topic, body, runAt); err != nil {
			return errs.Wrap(err, "failed to enqueue "+kind+" job")
		}
	}
	return nil
}
