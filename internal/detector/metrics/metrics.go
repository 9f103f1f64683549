package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the face detector adapter.
type Metrics struct {
	// Detection latency by outcome
	DetectLatency *prometheus.HistogramVec

	// Frames dropped because a newer frame replaced them while pending
	FramesSuperseded prometheus.Counter

	// Model loads by outcome
	ModelLoads *prometheus.CounterVec
}

// New creates a new Metrics instance with all detector metrics registered.
func New() *Metrics {
	return &Metrics{
		DetectLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kiosk_detector_detect_duration_seconds",
			Help:    "Duration of landmark detection calls by outcome",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"outcome"}), // outcome: "face", "no_face", "error"

		FramesSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_detector_frames_superseded_total",
			Help: "Pending frames replaced by a newer frame before detection",
		}),

		ModelLoads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_detector_model_loads_total",
			Help: "Model load attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveDetect records the duration of one detection call.
func (m *Metrics) ObserveDetect(outcome string, d time.Duration) {
	if m != nil {
		m.DetectLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncrementSuperseded records a dropped pending frame.
func (m *Metrics) IncrementSuperseded() {
	if m != nil {
		m.FramesSuperseded.Inc()
	}
}

// IncrementModelLoad records a model load attempt.
func (m *Metrics) IncrementModelLoad(outcome string) {
	if m != nil {
		m.ModelLoads.WithLabelValues(outcome).Inc()
	}
}
