package capture

import (
	"context"
	"image"
	"time"

	"kiosk/internal/detector"
)

// Frame is one camera frame with its monotonic timestamp.
type Frame struct {
	Image     image.Image
	Timestamp time.Duration
}

// FrameSource acquires the camera. Open blocks until the user grants or
// denies permission; a denial is reported with CodePermissionDenied.
type FrameSource interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera handle owned by exactly one session.
type Stream interface {
	// Next blocks until a frame newer than the last one returned is ready.
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Detector runs face detection on one frame.
type Detector interface {
	Detect(ctx context.Context, frame image.Image, ts time.Duration) (detector.Result, error)
}

// Pacer schedules detection loop iterations.
type Pacer interface {
	Wait(ctx context.Context) error
	Stop()
}

// TickerPacer paces iterations at a fixed frame rate.
type TickerPacer struct {
	ticker *time.Ticker
}

// NewTickerPacer creates a pacer firing fps times per second.
func NewTickerPacer(fps int) *TickerPacer {
	if fps <= 0 {
		fps = 30
	}
	return &TickerPacer{ticker: time.NewTicker(time.Second / time.Duration(fps))}
}

func (p *TickerPacer) Wait(ctx context.Context) error {
	select {
	case <-p.ticker.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *TickerPacer) Stop() {
	p.ticker.Stop()
}
