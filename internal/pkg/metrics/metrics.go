package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "villa_booking"

// Recorder collects booking core metrics. A nil *Recorder records nothing.
type Recorder struct {
	orders        *prometheus.CounterVec
	reservations  *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	gateway       *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	lockWait      prometheus.Histogram
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		orders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_orders_total",
			Help:      "Payment order requests by outcome.",
		}, []string{"outcome"}),
		reservations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Verify-and-reserve attempts by outcome.",
		}, []string{"outcome"}),
		cancellations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Completed cancellations by payment status.",
		}, []string{"payment_status"}),
		gateway: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Payment gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbox jobs processed by kind and outcome.",
		}, []string{"kind", "topic", "outcome"}),
		lockWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent acquiring booking locks.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
	}
}

func (r *Recorder) Order(outcome string) {
	if r == nil {
		return
	}
	r.orders.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Reservation(outcome string) {
	if r == nil {
		return
	}
	r.reservations.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Cancellation(paymentStatus string) {
	if r == nil {
		return
	}
	r.cancellations.WithLabelValues(paymentStatus).Inc()
}

func (r *Recorder) GatewayCall(operation string, started time.Time, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.gateway.WithLabelValues(operation, outcome).Observe(time.Since(started).Seconds())
}

func (r *Recorder) Notification(kind, topic, outcome string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(kind, topic, outcome).Inc()
}

func (r *Recorder) LockWait(started time.Time) {
	if r == nil {
		return
	}
	r.lockWait.Observe(time.Since(started).Seconds())
}
