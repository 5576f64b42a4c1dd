package commands

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/refund"
	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type CancelParams struct {
	BookingID uuid.UUID
	UserID    uuid.UUID
	// RefundAmount and CancellationFee are major units. A zero refund cancels
	// without contacting the gateway.
	RefundAmount    float64
	CancellationFee float64
	Reason          string
}

type CancellationResult struct {
	BookingID     uuid.UUID
	PaymentStatus booking.PaymentStatus
	Refund        *refund.Refund
}

type CancellationCommands interface {
	// Cancel refunds (when requested) and cancels a confirmed booking owned by the user.
	// A failed refund leaves the booking and its booked dates untouched.
	Cancel(ctx context.Context, params CancelParams) (*CancellationResult, error)
}

type cancellationCommandsImpl struct {
	uow      shared.UnitOfWork
	gateway  PaymentGateway
	locker   Locker
	clock    clock.Clock
	metrics  *metrics.Recorder
	currency string
	newID    func() uuid.UUID
}

func NewCancellationCommands(
	uow shared.UnitOfWork,
	gateway PaymentGateway,
	locker Locker,
	clk clock.Clock,
	rec *metrics.Recorder,
	currency string,
) CancellationCommands {
	return &cancellationCommandsImpl{
		uow:      uow,
		gateway:  gateway,
		locker:   locker,
		clock:    clk,
		metrics:  rec,
		currency: currency,
		newID:    uuid.New,
	}
}

func (c *cancellationCommandsImpl) Cancel(ctx context.Context, params CancelParams) (*CancellationResult, error) {
	if params.BookingID == uuid.Nil || params.UserID == uuid.Nil {
		return nil, ErrMissingField
	}
	refundAmount, err := booking.MoneyFromMajor(params.RefundAmount)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidRefundAmount)
	}
	fee, err := booking.MoneyFromMajor(params.CancellationFee)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidRefundAmount)
	}

	release, err := c.locker.Acquire(ctx, bookingLockKey(params.BookingID.String()))
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "acquire booking lock"), ErrResourceBusy)
	}
	defer release()

	reads := c.uow.CommandReads()
	b, err := reads.BookingForUser(ctx, params.BookingID, params.UserID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, queries.ErrBookingNotFound
		}
		return nil, errs.Wrap(err, "failed to load booking")
	}
	if b.IsCancelled() {
		return nil, booking.ErrAlreadyCancelled
	}
	prop, err := reads.PropertyByID(ctx, b.PropertyID())
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, queries.ErrPropertyNotFound
		}
		return nil, errs.Wrap(err, "failed to load property")
	}
	if b.TotalPrice().LessThan(refundAmount) {
		return nil, ErrRefundExceedsPaid
	}

	var gwRefund *GatewayRefund
	if !refundAmount.IsZero() {
		gwRefund, err = c.refund(ctx, b, refundAmount, fee, params.Reason)
		if err != nil {
			return nil, err
		}
	}

	// Money may have moved; the local writes must not be abandoned halfway.
	ctx = context.WithoutCancel(ctx)

	var result *CancellationResult
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// Reload inside the transaction so retries start from stored state.
		current, err := tx.Reads().BookingForUser(ctx, params.BookingID, params.UserID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return queries.ErrBookingNotFound
			}
			return errs.Wrap(err, "failed to reload booking")
		}
		now := c.clock.Now()
		if err := current.Cancel(gwRefund != nil, params.Reason, now); err != nil {
			return err
		}
		if err := tx.Bookings().MarkCancelled(ctx, current); err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return booking.ErrAlreadyCancelled
			}
			return errs.Wrap(err, "failed to persist cancellation")
		}

		var rf *refund.Refund
		if gwRefund != nil {
			rf, err = c.refundRecord(current, gwRefund, refundAmount, fee, params.Reason, now)
			if err != nil {
				return err
			}
			if err := tx.Refunds().Create(ctx, rf); err != nil {
				return errs.Wrap(err, "failed to record refund")
			}
		}

		released, err := tx.Ledger().Remove(ctx, prop.ID(), current.ID())
		if err != nil {
			return errs.Wrap(err, "failed to release booked dates")
		}
		if !released {
			slog.Warn("no booked dates held by cancelled booking",
				"booking_id", current.ID(), "property_id", prop.ID())
		}

		payload := shared.BookingJobPayload{BookingID: current.ID()}
		if rf != nil {
			id := rf.ID()
			payload.RefundID = &id
		}
		if err := enqueueBookingJobs(ctx, tx, shared.TopicBookingCancelled, payload, now); err != nil {
			return err
		}

		result = &CancellationResult{
			BookingID:     current.ID(),
			PaymentStatus: current.PaymentStatus(),
			Refund:        rf,
		}
		return nil
	})
	if err != nil {
		if gwRefund != nil {
			slog.Error("refund issued but cancellation was not persisted",
				"booking_id", params.BookingID,
				"gateway_refund_id", gwRefund.ID,
				"payment_id", gwRefund.PaymentID,
				"amount", gwRefund.Amount,
				"error", err.Error())
		}
		return nil, err
	}

	c.metrics.Cancellation(result.PaymentStatus.String())
	slog.Info("booking cancelled",
		"booking_id", result.BookingID,
		"payment_status", result.PaymentStatus,
		"refund_amount", refundAmount.Minor())
	return result, nil
}

func (c *cancellationCommandsImpl) refund(ctx context.Context, b *booking.Booking, amount, fee booking.Money, reason string) (*GatewayRefund, error) {
	req := RefundRequest{
		Amount:  amount.Minor(),
		Receipt: "refund_" + strings.ReplaceAll(b.ID().String(), "-", ""),
		Notes: map[string]string{
			"bookingId":       b.ID().String(),
			"cancellationFee": strconv.FormatFloat(fee.Major(), 'f', 2, 64),
			"reason":          reason,
		},
	}
	started := time.Now()
	gw, err := c.gateway.Refund(ctx, b.Payment().PaymentID(), req)
	c.metrics.GatewayCall("refund", started, err)
	if err != nil {
		slog.Warn("gateway refund failed, booking left unchanged",
			"booking_id", b.ID(), "payment_id", b.Payment().PaymentID(), "error", err.Error())
		return nil, errs.Mark(errs.Wrap(err, "gateway refund"), ErrPaymentProvider)
	}
	return gw, nil
}

func (c *cancellationCommandsImpl) refundRecord(
	b *booking.Booking,
	gw *GatewayRefund,
	requested, fee booking.Money,
	reason string,
	now time.Time,
) (*refund.Refund, error) {
	amount := requested
	if gw.Amount > 0 {
		m, err := booking.NewMoney(gw.Amount)
		if err != nil {
			return nil, err
		}
		amount = m
	}
	currency := gw.Currency
	if currency == "" {
		currency = c.currency
	}
	createdAt := gw.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	paymentID := gw.PaymentID
	if paymentID == "" {
		paymentID = b.Payment().PaymentID()
	}
	return refund.New(refund.Params{
		ID:              c.newID(),
		BookingID:       b.ID(),
		PropertyID:      b.PropertyID(),
		UserID:          b.UserID(),
		GatewayRefundID: gw.ID,
		PaymentID:       paymentID,
		Amount:          amount,
		Currency:        currency,
		Status:          refund.ParseGatewayStatus(gw.Status),
		Notes: map[string]string{
			"bookingId":       b.ID().String(),
			"cancellationFee": strconv.FormatFloat(fee.Major(), 'f', 2, 64),
			"reason":          reason,
		},
		ReferenceID: gw.Receipt,
		CreatedAt:   createdAt,
		ProcessedAt: gw.ProcessedAt,
	})
}
