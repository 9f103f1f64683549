package detector

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"kiosk/internal/detector/metrics"
	dErrors "kiosk/pkg/domain-errors"
)

// Adapter owns one Landmarker and enforces at most one in-flight detection.
// A caller arriving while a detection runs becomes the single pending frame;
// a later arrival replaces it and the replaced caller gets
// ErrFrameSuperseded.
type Adapter struct {
	loader  Loader
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	loads      singleflight.Group
	initMu     sync.RWMutex
	landmarker Landmarker
	source     *ModelSource

	mu      sync.Mutex
	busy    bool
	pending *waiter
}

type waiter struct {
	turn    chan struct{}
	dropped chan struct{}
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

// WithTracer overrides the tracer (defaults to the global provider).
func WithTracer(t trace.Tracer) Option {
	return func(a *Adapter) {
		a.tracer = t
	}
}

// NewAdapter creates an uninitialized adapter backed by loader.
func NewAdapter(loader Loader, opts ...Option) *Adapter {
	a := &Adapter{
		loader: loader,
		logger: slog.Default(),
		tracer: otel.Tracer("kiosk/detector"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize loads the model once. Later calls return immediately and
// concurrent callers share a single load. The source is remembered so a
// landmarker lost by the backend can be reloaded on demand.
func (a *Adapter) Initialize(ctx context.Context, src ModelSource) error {
	if a.Ready() {
		return nil
	}
	a.initMu.Lock()
	a.source = &src
	a.initMu.Unlock()

	ch := a.loads.DoChan(src.Key(), func() (any, error) {
		if lm := a.current(); lm != nil {
			return lm, nil
		}
		start := time.Now()
		// Shared load outlives any single caller's cancellation.
		lm, err := a.loader.Load(context.WithoutCancel(ctx), src)
		if err != nil {
			a.metrics.IncrementModelLoad("error")
			return nil, err
		}
		a.initMu.Lock()
		a.landmarker = lm
		a.initMu.Unlock()
		a.metrics.IncrementModelLoad("ok")
		a.logger.InfoContext(ctx, "face detector ready",
			"model_url", src.ModelURL,
			"delegate", src.Delegate,
			"duration", time.Since(start))
		return lm, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			a.logger.ErrorContext(ctx, "face detector load failed", "model_url", src.ModelURL, "error", res.Err)
			return dErrors.Wrap(NewDetectionError(ErrorModelLoad, "model load failed", res.Err),
				dErrors.CodeModelLoad, "unable to load the face detection model")
		}
		return nil
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeModelLoad, "face detection model load abandoned")
	}
}

// Ready reports whether Initialize has succeeded.
func (a *Adapter) Ready() bool {
	return a.current() != nil
}

func (a *Adapter) current() Landmarker {
	a.initMu.RLock()
	defer a.initMu.RUnlock()
	return a.landmarker
}

// landmarkerFor returns the loaded landmarker, reloading it when an earlier
// Initialize named a source but the landmarker has since been dropped.
func (a *Adapter) landmarkerFor(ctx context.Context) (Landmarker, error) {
	if lm := a.current(); lm != nil {
		return lm, nil
	}
	a.initMu.RLock()
	src := a.source
	a.initMu.RUnlock()
	if src != nil {
		if err := a.Initialize(ctx, *src); err != nil {
			return nil, err
		}
		if lm := a.current(); lm != nil {
			return lm, nil
		}
	}
	return nil, dErrors.Wrap(NewDetectionError(ErrorNotInitialized, "detect before initialize", nil),
		dErrors.CodeDetectionUnavailable, "face detector is not initialized")
}

// invalidate drops lm if it is still the current landmarker.
func (a *Adapter) invalidate(ctx context.Context, lm Landmarker) {
	a.initMu.Lock()
	if a.landmarker != lm {
		a.initMu.Unlock()
		return
	}
	a.landmarker = nil
	a.initMu.Unlock()

	a.logger.WarnContext(ctx, "face detector session lost, reloading on next frame")
	if err := lm.Close(); err != nil {
		a.logger.DebugContext(ctx, "lost landmarker close failed", "error", err)
	}
}

// Detect runs one detection on frame. ts is a monotonic frame timestamp.
func (a *Adapter) Detect(ctx context.Context, frame image.Image, ts time.Duration) (Result, error) {
	lm, err := a.landmarkerFor(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := a.acquire(ctx); err != nil {
		return Result{}, err
	}
	defer a.release()

	ctx, span := a.tracer.Start(ctx, "detector.Detect",
		trace.WithAttributes(attribute.Int64("frame.timestamp_ms", ts.Milliseconds())))
	defer span.End()

	start := time.Now()
	faces, err := lm.DetectLandmarks(ctx, frame, ts)
	if err != nil {
		a.metrics.ObserveDetect("error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "detect failed")
		de := classify(err)
		if de.Category == ErrorSessionLost {
			a.invalidate(ctx, lm)
		}
		return Result{}, dErrors.Wrap(de, dErrors.CodeDetectionUnavailable, "face detection failed")
	}

	res := Result{Faces: faces, FrameTimestamp: ts}
	outcome := "no_face"
	if res.Adequate() {
		outcome = "face"
	}
	a.metrics.ObserveDetect(outcome, time.Since(start))
	span.SetAttributes(attribute.Int("faces", len(faces)))
	return res, nil
}

func (a *Adapter) acquire(ctx context.Context) error {
	a.mu.Lock()
	if !a.busy {
		a.busy = true
		a.mu.Unlock()
		return nil
	}
	w := &waiter{turn: make(chan struct{}), dropped: make(chan struct{})}
	if a.pending != nil {
		close(a.pending.dropped)
		a.metrics.IncrementSuperseded()
	}
	a.pending = w
	a.mu.Unlock()

	select {
	case <-w.turn:
		return nil
	case <-w.dropped:
		return ErrFrameSuperseded
	case <-ctx.Done():
		a.mu.Lock()
		if a.pending == w {
			a.pending = nil
			a.mu.Unlock()
			return ctx.Err()
		}
		a.mu.Unlock()
		// Handed the turn at the same moment; pass it on.
		select {
		case <-w.turn:
			a.release()
		default:
		}
		return ctx.Err()
	}
}

// release hands the turn to the pending waiter or marks the adapter idle.
func (a *Adapter) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w := a.pending; w != nil {
		a.pending = nil
		close(w.turn)
		return
	}
	a.busy = false
}

// Close releases the landmarker. The adapter must be re-initialized to be
// used again.
func (a *Adapter) Close() error {
	a.initMu.Lock()
	lm := a.landmarker
	a.landmarker = nil
	a.source = nil
	a.initMu.Unlock()
	if lm == nil {
		return nil
	}
	return lm.Close()
}
