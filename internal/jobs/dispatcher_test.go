//go:build unit

package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"villa-booking/internal/domain/user"
	"villa-booking/internal/infra/mailer"
	"villa-booking/internal/jobs"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/config"
	"villa-booking/internal/pkg/invoice"
	"villa-booking/internal/pkg/metrics"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"
	jobsmock "villa-booking/tests/mock/jobs"
	queriesmock "villa-booking/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

var dispatchNow = time.Date(2025, time.May, 12, 9, 0, 0, 0, time.UTC)

type DispatcherTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	store      *jobsmock.MockStore
	bookings   *queriesmock.MockBookingQueries
	mailer     *jobsmock.MockMailer
	publisher  *jobsmock.MockPublisher
	dispatcher *jobs.Dispatcher
	cfg        config.SchedulerConfig
}

func TestDispatcherTestSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}

func (s *DispatcherTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = jobsmock.NewMockStore(s.ctrl)
	s.bookings = queriesmock.NewMockBookingQueries(s.ctrl)
	s.mailer = jobsmock.NewMockMailer(s.ctrl)
	s.publisher = jobsmock.NewMockPublisher(s.ctrl)
	s.cfg = config.SchedulerConfig{
		BatchSize:     10,
		Concurrency:   2,
		MaxAttempts:   5,
		Retention:     168 * time.Hour,
		SendTimeout:   time.Second,
		RetryBaseWait: 30 * time.Second,
	}
	s.dispatcher = jobs.NewDispatcher(s.store, s.bookings, s.mailer, s.publisher,
		clock.NewMockClock(dispatchNow), metrics.NewRecorder(prometheus.NewRegistry()), s.cfg)
}

func (s *DispatcherTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func newDetail(email string) *queries.BookingDetail {
	return &queries.BookingDetail{
		Booking: queries.BookingView{
			ID:            uuid.New(),
			PropertyID:    uuid.New(),
			UserID:        uuid.New(),
			CheckIn:       time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
			CheckOut:      time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC),
			Nights:        2,
			Guests:        2,
			TotalPrice:    1000000,
			Status:        "confirmed",
			PaymentStatus: "paid",
			PaymentID:     "pay_1KQZ3ABC",
		},
		Guest:    user.NewContact(uuid.New(), "Asha", "Rao", email, ""),
		Property: queries.PropertySummary{Title: "Sea View Villa"},
	}
}

func newJob(kind, topic string, bookingID uuid.UUID, attempts int) shared.NotificationJob {
	payload, _ := json.Marshal(shared.BookingJobPayload{BookingID: bookingID})
	return shared.NotificationJob{
		ID:       uuid.New(),
		Kind:     kind,
		Topic:    topic,
		Payload:  payload,
		Attempts: attempts,
		Status:   "queued",
	}
}

func (s *DispatcherTestSuite) claim(due ...shared.NotificationJob) {
	s.store.EXPECT().ClaimDue(gomock.Any(), dispatchNow, dispatchNow.Add(2*s.cfg.SendTimeout), s.cfg.BatchSize).Return(due, nil)
}

func sampleInvoice() *invoice.Invoice {
	return &invoice.Invoice{
		Number:     "VF/2025/0001",
		BookingRef: "VF-1KQZ3ABC",
		IssuedAt:   dispatchNow,
		Lines:      []invoice.Line{{Description: "Mon, 02 Jun 2025", Amount: 500000}, {Description: "Tue, 03 Jun 2025", Amount: 500000}},
		Subtotal:   1000000,
		Total:      1000000,
		Currency:   "INR",
		PaymentID:  "pay_1KQZ3ABC",
		Status:     "paid",
	}
}

func (s *DispatcherTestSuite) TestDispatch_ConfirmationEmail() {
	detail := newDetail("asha@example.com")
	job := newJob(shared.JobKindEmail, shared.TopicBookingConfirmed, detail.Booking.ID, 1)
	s.claim(job)
	s.bookings.EXPECT().GetDetail(gomock.Any(), detail.Booking.ID).Return(detail, nil)
	s.bookings.EXPECT().Invoice(gomock.Any(), detail).Return(sampleInvoice(), nil)
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg mailer.Message) error {
		s.Equal("asha@example.com", msg.ToEmail)
		s.Equal("Asha Rao", msg.ToName)
		s.Equal("Booking confirmed: Sea View Villa", msg.Subject)
		s.Contains(msg.PlainText, "Hi Asha,")
		s.Contains(msg.PlainText, "Booking reference: VF-1KQZ3ABC")
		s.Contains(msg.PlainText, "Check-in: Mon, 02 Jun 2025")
		s.Contains(msg.PlainText, "INR 10000.00")
		if s.Len(msg.Attachments, 1) {
			s.Equal("invoice-VF-2025-0001.txt", msg.Attachments[0].Filename)
			s.NotEmpty(msg.Attachments[0].Content)
		}
		return nil
	})
	s.store.EXPECT().MarkSent(gomock.Any(), job.ID, dispatchNow).Return(nil)

	n, err := s.dispatcher.Dispatch(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *DispatcherTestSuite) TestDispatch_CancellationEmailWithRefund() {
	detail := newDetail("asha@example.com")
	detail.Booking.Status = "cancelled"
	detail.Booking.CancellationReason = "Change of plans"
	refundID := uuid.New()
	detail.Refunds = []queries.RefundView{{ID: refundID, GatewayRefundID: "rfnd_9", Amount: 800000, Currency: "INR", Status: "processed"}}

	payload, _ := json.Marshal(shared.BookingJobPayload{BookingID: detail.Booking.ID, RefundID: &refundID})
	job := shared.NotificationJob{ID: uuid.New(), Kind: shared.JobKindEmail, Topic: shared.TopicBookingCancelled, Payload: payload, Attempts: 1}
	s.claim(job)
	s.bookings.EXPECT().GetDetail(gomock.Any(), detail.Booking.ID).Return(detail, nil)
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg mailer.Message) error {
		s.Equal("Booking cancelled: Sea View Villa", msg.Subject)
		s.Contains(msg.PlainText, "Reason: Change of plans")
		s.Contains(msg.PlainText, "A refund of INR 8000.00 has been initiated.")
		s.Contains(msg.PlainText, "Refund id: rfnd_9")
		s.Empty(msg.Attachments)
		return nil
	})
	s.store.EXPECT().MarkSent(gomock.Any(), job.ID, dispatchNow).Return(nil)

	_, err := s.dispatcher.Dispatch(context.Background())
	s.NoError(err)
}

func (s *DispatcherTestSuite) TestDispatch_GuestWithoutEmailIsSkipped() {
	detail := newDetail("")
	job := newJob(shared.JobKindEmail, shared.TopicBookingConfirmed, detail.Booking.ID, 1)
	s.claim(job)
	s.bookings.EXPECT().GetDetail(gomock.Any(), detail.Booking.ID).Return(detail, nil)
	s.store.EXPECT().MarkSent(gomock.Any(), job.ID, dispatchNow).Return(nil)

	_, err := s.dispatcher.Dispatch(context.Background())
	s.NoError(err)
}

func (s *DispatcherTestSuite) TestDispatch_PublishesEvent() {
	detail := newDetail("asha@example.com")
	job := newJob(shared.JobKindEvent, shared.TopicBookingConfirmed, detail.Booking.ID, 1)
	s.claim(job)
	s.bookings.EXPECT().GetDetail(gomock.Any(), detail.Booking.ID).Return(detail, nil)
	s.publisher.EXPECT().Publish(gomock.Any(), shared.TopicBookingConfirmed, detail.Booking.ID.String(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, value []byte) error {
			var ev jobs.BookingEvent
			s.NoError(json.Unmarshal(value, &ev))
			s.Equal(shared.TopicBookingConfirmed, ev.Type)
			s.Equal(detail.Booking.ID, ev.BookingID)
			s.Equal(int64(1000000), ev.TotalPrice)
			s.Equal("2025-06-02", ev.CheckIn)
			s.Nil(ev.RefundID)
			s.True(dispatchNow.Equal(ev.OccurredAt))
			return nil
		})
	s.store.EXPECT().MarkSent(gomock.Any(), job.ID, dispatchNow).Return(nil)

	_, err := s.dispatcher.Dispatch(context.Background())
	s.NoError(err)
}

func (s *DispatcherTestSuite) TestDispatch_TransientFailureBacksOff() {
	cases := []struct {
		attempts int
		wait     time.Duration
	}{
		{attempts: 1, wait: 30 * time.Second},
		{attempts: 3, wait: 2 * time.Minute},
	}
	for _, tc := range cases {
		s.Run(tc.wait.String(), func() {
			detail := newDetail("asha@example.com")
			job := newJob(shared.JobKindEvent, shared.TopicBookingConfirmed, detail.Booking.ID, tc.attempts)
			s.claim(job)
			s.bookings.EXPECT().GetDetail(gomock.Any(), detail.Booking.ID).Return(detail, nil)
			s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker unavailable"))
			s.store.EXPECT().Reschedule(gomock.Any(), job.ID, dispatchNow.Add(tc.wait), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ uuid.UUID, _ time.Time, lastErr string) error {
					s.Contains(lastErr, "broker unavailable")
					return nil
				})

			_, err := s.dispatcher.Dispatch(context.Background())
			s.NoError(err)
		})
	}
}

func (s *DispatcherTestSuite) TestDispatch_ExhaustedAttemptsFail() {
	detail := newDetail("asha@example.com")
	job := newJob(shared.JobKindEvent, shared.TopicBookingConfirmed, detail.Booking.ID, s.cfg.MaxAttempts)
	s.claim(job)
	s.bookings.EXPECT().GetDetail(gomock.Any(), detail.Booking.ID).Return(detail, nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker unavailable"))
	s.store.EXPECT().MarkFailed(gomock.Any(), job.ID, gomock.Any(), dispatchNow).Return(nil)

	_, err := s.dispatcher.Dispatch(context.Background())
	s.NoError(err)
}

func (s *DispatcherTestSuite) TestDispatch_PermanentFailures() {
	s.Run("booking no longer exists", func() {
		job := newJob(shared.JobKindEmail, shared.TopicBookingConfirmed, uuid.New(), 1)
		s.claim(job)
		s.bookings.EXPECT().GetDetail(gomock.Any(), gomock.Any()).Return(nil, queries.ErrBookingNotFound)
		s.store.EXPECT().MarkFailed(gomock.Any(), job.ID, gomock.Any(), dispatchNow).Return(nil)

		_, err := s.dispatcher.Dispatch(context.Background())
		s.NoError(err)
	})

	s.Run("malformed payload", func() {
		job := shared.NotificationJob{ID: uuid.New(), Kind: shared.JobKindEmail, Topic: shared.TopicBookingConfirmed, Payload: []byte("{"), Attempts: 1}
		s.claim(job)
		s.store.EXPECT().MarkFailed(gomock.Any(), job.ID, gomock.Any(), dispatchNow).Return(nil)

		_, err := s.dispatcher.Dispatch(context.Background())
		s.NoError(err)
	})

	s.Run("unknown kind", func() {
		detail := newDetail("asha@example.com")
		job := newJob("sms", shared.TopicBookingConfirmed, detail.Booking.ID, 1)
		s.claim(job)
		s.bookings.EXPECT().GetDetail(gomock.Any(), detail.Booking.ID).Return(detail, nil)
		s.store.EXPECT().MarkFailed(gomock.Any(), job.ID, gomock.Any(), dispatchNow).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, lastErr string, _ time.Time) error {
				s.Contains(lastErr, `"sms"`)
				return nil
			})

		_, err := s.dispatcher.Dispatch(context.Background())
		s.NoError(err)
	})
}

func (s *DispatcherTestSuite) TestDispatch_StoreErrors() {
	s.Run("claim", func() {
		s.store.EXPECT().ClaimDue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("pool closed"))

		n, err := s.dispatcher.Dispatch(context.Background())
		s.Error(err)
		s.Zero(n)
	})

	s.Run("nothing due", func() {
		s.claim()

		n, err := s.dispatcher.Dispatch(context.Background())
		s.NoError(err)
		s.Zero(n)
	})

	s.Run("mark sent", func() {
		detail := newDetail("")
		job := newJob(shared.JobKindEmail, shared.TopicBookingConfirmed, detail.Booking.ID, 1)
		s.claim(job)
		s.bookings.EXPECT().GetDetail(gomock.Any(), detail.Booking.ID).Return(detail, nil)
		s.store.EXPECT().MarkSent(gomock.Any(), job.ID, dispatchNow).Return(errors.New("pool closed"))

		n, err := s.dispatcher.Dispatch(context.Background())
		s.Error(err)
		s.Equal(1, n)
	})
}

func (s *DispatcherTestSuite) TestPurge() {
	s.store.EXPECT().PurgeSent(gomock.Any(), dispatchNow.Add(-s.cfg.Retention)).Return(int64(3), nil)

	n, err := s.dispatcher.Purge(context.Background())
	s.NoError(err)
	s.Equal(int64(3), n)
}
