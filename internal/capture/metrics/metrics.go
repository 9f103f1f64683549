package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for capture sessions.
type Metrics struct {
	// Sessions finished by outcome
	SessionOutcome *prometheus.CounterVec

	// Time from streaming start to auto-capture
	TimeToCapture prometheus.Histogram

	// Detection attempts per finished session
	DetectionAttempts prometheus.Histogram

	// Sessions currently holding the camera
	CameraHeld prometheus.Gauge
}

// New creates a new Metrics instance with all capture metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kiosk_capture_sessions_total",
			Help: "Capture sessions finished by outcome",
		}, []string{"outcome"}), // outcome: "captured", "still", "cancelled", "failed"

		TimeToCapture: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiosk_capture_time_to_capture_seconds",
			Help:    "Time from camera stream start to auto-capture",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		DetectionAttempts: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kiosk_capture_detection_attempts",
			Help:    "Detection attempts per finished capture session",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),

		CameraHeld: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "kiosk_capture_camera_held",
			Help: "1 while a capture session holds the camera",
		}),
	}
}

// IncrementOutcome records a finished session.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.SessionOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveTimeToCapture records how long streaming ran before capture.
func (m *Metrics) ObserveTimeToCapture(d time.Duration) {
	if m != nil {
		m.TimeToCapture.Observe(d.Seconds())
	}
}

// ObserveAttempts records the detection attempts of a finished session.
func (m *Metrics) ObserveAttempts(n int) {
	if m != nil {
		m.DetectionAttempts.Observe(float64(n))
	}
}

// CameraAcquired marks the camera as held.
func (m *Metrics) CameraAcquired() {
	if m != nil {
		m.CameraHeld.Set(1)
	}
}

// CameraReleased marks the camera as free.
func (m *Metrics) CameraReleased() {
	if m != nil {
		m.CameraHeld.Set(0)
	}
}
