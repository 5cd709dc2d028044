// Package metrics exports booking outcomes and HTTP latencies to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reservation"

const (
	OutcomeCreated = "created"
)

// Recorder implements booking.Recorder.
type Recorder struct {
	reservations  *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	downPayments  *prometheus.CounterVec
	refunds       *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Reservation requests by equipment and outcome.",
		}, []string{"equipment", "outcome"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancelled reservations by equipment.",
		}, []string{"equipment"}),
		downPayments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "down_payments_total",
			Help:      "Sum of down payments charged.",
		}, []string{"equipment"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_total",
			Help:      "Sum of refunds paid on cancellation.",
		}, []string{"equipment"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(r.reservations, r.cancellations, r.downPayments, r.refunds, r.httpDuration)
	return r
}

func (r *Recorder) ReservationCreated(equipment string, downPayment float64) {
	r.reservations.WithLabelValues(equipment, OutcomeCreated).Inc()
	r.downPayments.WithLabelValues(equipment).Add(downPayment)
}

// ReservationRejected uses the rejection reason as the outcome label.
func (r *Recorder) ReservationRejected(equipment, reason string) {
	r.reservations.WithLabelValues(equipment, reason).Inc()
}

func (r *Recorder) ReservationCancelled(equipment string, refund float64) {
	r.cancellations.WithLabelValues(equipment).Inc()
	r.refunds.WithLabelValues(equipment).Add(refund)
}

func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	r.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
