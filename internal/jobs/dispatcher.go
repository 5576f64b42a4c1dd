// Package jobs delivers the booking notification outbox.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"villa-booking/internal/infra/mailer"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxRetryWait = 6 * time.Hour

var (
	ErrUnknownJobKind = errs.Define("unknown notification job kind", errs.ErrValidation)
	ErrInvalidPayload = errs.Define("invalid notification job payload", errs.ErrValidation)
)

// Store is the outbox table. ClaimDue leases the returned jobs until leaseUntil,
// so a crashed dispatcher's jobs become due again.
type Store interface {
	ClaimDue(ctx context.Context, now, leaseUntil time.Time, limit int) ([]shared.NotificationJob, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastErr string, at time.Time) error
	PurgeSent(ctx context.Context, before time.Time) (int64, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type Publisher interface {
	Publish(ctx context.Context, eventType, key string, value []byte) error
}

type Dispatcher struct {
	store     Store
	bookings  queries.BookingQueries
	mailer    Mailer
	publisher Publisher
	clock     clock.Clock
	metrics   *metrics.Recorder
	cfg       config.SchedulerConfig
}

func NewDispatcher(
	store Store,
	bookings queries.BookingQueries,
	m Mailer,
	p Publisher,
	clk clock.Clock,
	rec *metrics.Recorder,
	cfg config.SchedulerConfig,
) *Dispatcher {
	return &Dispatcher{
		store:     store,
		bookings:  bookings,
		mailer:    m,
		publisher: p,
		clock:     clk,
		metrics:   rec,
		cfg:       cfg,
	}
}

// Dispatch claims one batch of due jobs and delivers it with bounded concurrency.
// It returns the number of jobs claimed.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	now := d.clock.Now()
	claimed, err := d.store.ClaimDue(ctx, now, now.Add(2*d.cfg.SendTimeout), d.cfg.BatchSize)
	if err != nil {
		return 0, errs.Wrap(err, "failed to claim notification jobs")
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)
	for _, job := range claimed {
		g.Go(func() error {
			return d.process(ctx, job)
		})
	}
	if err := g.Wait(); err != nil {
		return len(claimed), err
	}
	return len(claimed), nil
}

// Purge removes sent jobs older than the retention window.
func (d *Dispatcher) Purge(ctx context.Context) (int64, error) {
	n, err := d.store.PurgeSent(ctx, d.clock.Now().Add(-d.cfg.Retention))
	if err != nil {
		return 0, errs.Wrap(err, "failed to purge notification jobs")
	}
	return n, nil
}

// process returns an error only when the job state itself cannot be updated.
func (d *Dispatcher) process(ctx context.Context, job shared.NotificationJob) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	outcome, err := d.deliver(sendCtx, job)
	now := d.clock.Now()
	if err == nil {
		d.metrics.Notification(job.Kind, job.Topic, outcome)
		if err := d.store.MarkSent(ctx, job.ID, now); err != nil {
			return errs.Wrapf(err, "failed to mark job %s sent", job.ID)
		}
		return nil
	}

	if permanent(err) || job.Attempts >= d.cfg.MaxAttempts {
		d.metrics.Notification(job.Kind, job.Topic, "failed")
		slog.Error("notification job failed permanently",
			"job_id", job.ID,
			"kind", job.Kind,
			"topic", job.Topic,
			"attempts", job.Attempts,
			"error", err.Error())
		if err := d.store.MarkFailed(ctx, job.ID, err.Error(), now); err != nil {
			return errs.Wrapf(err, "failed to mark job %s failed", job.ID)
		}
		return nil
	}

	d.metrics.Notification(job.Kind, job.Topic, "retry")
	runAt := now.Add(d.backoff(job.Attempts))
	slog.Warn("notification delivery failed, rescheduled",
		"job_id", job.ID,
		"kind", job.Kind,
		"topic", job.Topic,
		"attempts", job.Attempts,
		"run_at", runAt,
		"error", err.Error())
	if err := d.store.Reschedule(ctx, job.ID, runAt, err.Error()); err != nil {
		return errs.Wrapf(err, "failed to reschedule job %s", job.ID)
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, job shared.NotificationJob) (string, error) {
	var payload shared.BookingJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return "", errs.Mark(errs.Wrap(err, "decode payload"), ErrInvalidPayload)
	}
	if payload.BookingID == uuid.Nil {
		return "", ErrInvalidPayload
	}

	detail, err := d.bookings.GetDetail(ctx, payload.BookingID)
	if err != nil {
		return "", err
	}

	switch job.Kind {
	case shared.JobKindEmail:
		return d.sendEmail(ctx, job.Topic, detail, payload)
	case shared.JobKindEvent:
		return d.publishEvent(ctx, job.Topic, detail, payload)
	default:
		return "", errs.Wrapf(ErrUnknownJobKind, "kind %q", job.Kind)
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, topic string, detail *queries.BookingDetail, payload shared.BookingJobPayload) (string, error) {
	if detail.Guest.Email().IsZero() {
		slog.Warn("guest has no email, notification skipped",
			"booking_id", detail.Booking.ID, "topic", topic)
		return "skipped", nil
	}
	msg, err := d.composeEmail(ctx, topic, detail, payload)
	if err != nil {
		return "", err
	}
	if err := d.mailer.Send(ctx, *msg); err != nil {
		return "", errs.Wrap(err, "send email")
	}
	return "sent", nil
}

func (d *Dispatcher) publishEvent(ctx context.Context, topic string, detail *queries.BookingDetail, payload shared.BookingJobPayload) (string, error) {
	value, err := json.Marshal(newBookingEvent(topic, detail, payload, d.clock.Now()))
	if err != nil {
		return "", errs.Wrap(err, "encode event")
	}
	if err := d.publisher.Publish(ctx, topic, detail.Booking.ID.String(), value); err != nil {
		return "", errs.Wrap(err, "publish event")
	}
	return "sent", nil
}

func (d *Dispatcher) backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	wait := d.cfg.RetryBaseWait
	for i := 1; i < attempts; i++ {
		wait *= 2
		if wait >= maxRetryWait {
			return maxRetryWait
		}
	}
	return wait
}

// Retrying cannot fix malformed jobs or bookings that no longer exist.
func permanent(err error) bool {
	return errs.Is(err, ErrInvalidPayload) ||
		errs.Is(err, ErrUnknownJobKind) ||
		errs.Is(err, queries.ErrBookingNotFound)
}
