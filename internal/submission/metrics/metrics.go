package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for visitor submissions.
type Metrics struct {
	// Submissions by result
	Submissions *prometheus.CounterVec

	// Round trip of the enrollment request
	RequestLatency prometheus.Histogram

	// Size of the serialized artifacts sent
	PayloadBytes prometheus.Histogram
}

// New creates a new Metrics instance with all submission metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_submissions_total",
			Help: "Visitor submissions by result",
		}, []string{"result"}), // result: "ack", "validation_failed", "client_rejected", "unavailable", "in_flight"

		RequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiosk_submission_request_duration_seconds",
			Help:    "Duration of the enrollment service request",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		PayloadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiosk_submission_payload_bytes",
			Help:    "Size of the signature and face images sent per submission",
			Buckets: prometheus.ExponentialBuckets(16<<10, 2, 8),
		}),
	}
}

// IncrementResult counts a finished submission.
func (m *Metrics) IncrementResult(result string) {
	if m != nil {
		m.Submissions.WithLabelValues(result).Inc()
	}
}

// ObserveRequest records the enrollment request round trip.
func (m *Metrics) ObserveRequest(d time.Duration) {
	if m != nil {
		m.RequestLatency.Observe(d.Seconds())
	}
}

// ObservePayload records the artifact bytes sent.
func (m *Metrics) ObservePayload(n int) {
	if m != nil {
		m.PayloadBytes.Observe(float64(n))
	}
}
