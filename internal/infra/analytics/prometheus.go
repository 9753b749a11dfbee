package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder counts business events. It implements the usecase
// AnalyticsRecorder port.
type PrometheusRecorder struct {
	bookingsCreated   *prometheus.CounterVec
	bookingsCancelled prometheus.Counter
	paymentFailures   *prometheus.CounterVec
}

func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		bookingsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookhive_bookings_created_total",
			Help: "Booking attempts by terminal outcome.",
		}, []string{"outcome"}),
		bookingsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookhive_bookings_cancelled_total",
			Help: "Bookings cancelled by their owner.",
		}),
		paymentFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookhive_payment_failures_total",
			Help: "Payment failures by reason.",
		}, []string{"reason"}),
	}
}

func (r *PrometheusRecorder) BookingCreated(outcome string) {
	r.bookingsCreated.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) BookingCancelled() {
	r.bookingsCancelled.Inc()
}

func (r *PrometheusRecorder) PaymentFailed(reason string) {
	r.paymentFailures.WithLabelValues(reason).Inc()
}
