// Package capture runs camera capture sessions: permission, a paced
// detection loop, auto-capture on the first adequate detection, and the
// still-image alternative.
package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"kiosk/internal/capture/metrics"
	"kiosk/internal/detector"
	"kiosk/internal/raster"
	"kiosk/pkg/domain"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/platform/sentinel"
)

// DefaultMaxDetectionRetries bounds consecutive detection errors.
const DefaultMaxDetectionRetries = 5

// User-facing failure messages.
const (
	MessageCameraError          = "Error accessing the camera. Please try again."
	MessagePermissionDenied     = "Camera access was denied. Please allow the camera to take a photo."
	MessageDetectionUnavailable = "Face detection failed. Please try again."
	MessageNoFace               = "No face detected in the selfie. Please try again."
	MessageCaptured             = "Picture captured successfully."
)

// Landmark overlay style for annotated stills.
var (
	overlayColor  = color.NRGBA{R: 0xC0, G: 0xC0, B: 0xC0, A: 0x70}
	overlayRadius = 1.5
)

// Outcome describes how a session ended.
type Outcome struct {
	SessionID domain.SessionID
	Phase     Phase
	Face      *raster.Blob
	Err       error
	Attempts  int
	Still     bool
}

// Label names the outcome for metrics and audit.
func (o Outcome) Label() string {
	switch {
	case o.Phase == PhaseFailed:
		return "failed"
	case o.Face != nil && o.Still:
		return "still"
	case o.Face != nil:
		return "captured"
	default:
		return "cancelled"
	}
}

// Session is one capture attempt. Stopped and Failed are terminal; retrying
// needs a new Session.
type Session struct {
	id           domain.SessionID
	source       FrameSource
	detector     Detector
	logger       *slog.Logger
	metrics      *metrics.Metrics
	newPacer     func() Pacer
	maxRetries   int
	onComplete   func(Outcome)
	onTransition func(from, to Phase)
	created      time.Time

	mu                  sync.Mutex
	phase               Phase
	stream              Stream
	streamingSince      time.Time
	lastFrameTS         time.Duration
	attempts            int
	consecutiveFailures int
	captures            int
	stillBusy           bool
	still               bool
	face                *raster.Blob
	err                 error
	cancel              context.CancelFunc
	done                chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithPacer sets the pacer factory used when streaming starts.
func WithPacer(newPacer func() Pacer) Option {
	return func(s *Session) {
		s.newPacer = newPacer
	}
}

// WithMaxDetectionRetries bounds consecutive detection errors before the
// session fails.
func WithMaxDetectionRetries(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithOnComplete registers a callback run once when the session ends.
func WithOnComplete(fn func(Outcome)) Option {
	return func(s *Session) {
		s.onComplete = fn
	}
}

// WithTransitionHook observes every phase change. The hook runs with the
// session lock held and must not call back into the session.
func WithTransitionHook(fn func(from, to Phase)) Option {
	return func(s *Session) {
		s.onTransition = fn
	}
}

// NewSession creates an Idle session.
func NewSession(source FrameSource, det Detector, opts ...Option) *Session {
	s := &Session{
		id:          domain.NewSessionID(),
		source:      source,
		detector:    det,
		logger:      slog.Default(),
		newPacer:    func() Pacer { return NewTickerPacer(30) },
		maxRetries:  DefaultMaxDetectionRetries,
		created:     time.Now(),
		lastFrameTS: -1,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() domain.SessionID { return s.id }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// DetectionAttempts returns the number of frames sent to the detector.
func (s *Session) DetectionAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// LastFrameTimestamp returns the timestamp of the last detected frame, or -1.
func (s *Session) LastFrameTimestamp() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrameTS
}

// Done is closed once the session has ended, the camera is released and
// the completion callback has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the captured face, or the failure. It is only meaningful
// after Done is closed.
func (s *Session) Result() (*raster.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.face, s.err
}

// Start requests the camera and runs the detection loop in the background.
// The loop is not bound to ctx's cancellation; use Cancel to stop it.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseIdle || s.stillBusy {
		s.mu.Unlock()
		return dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeInvariantViolation, "capture session already started")
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.setPhase(PhaseAwaitingPermission)
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Cancel stops the session from any phase and releases the camera.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.phase.Terminal() {
		s.mu.Unlock()
		return
	}
	stream, out := s.finishLocked(PhaseStopped, nil)
	s.mu.Unlock()
	s.complete(context.Background(), stream, out)
}

func (s *Session) run(ctx context.Context) {
	stream, err := s.source.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if dErrors.HasCode(err, dErrors.CodePermissionDenied) {
			s.fail(ctx, dErrors.Wrap(err, dErrors.CodePermissionDenied, MessagePermissionDenied))
		} else {
			s.fail(ctx, dErrors.Wrap(err, dErrors.CodeUnavailable, MessageCameraError))
		}
		return
	}
	if !s.enterStreaming(stream) {
		// Cancelled while the permission prompt was open.
		if err := stream.Close(); err != nil {
			s.logger.WarnContext(ctx, "camera release failed", "session_id", s.id.String(), "error", err)
		}
		return
	}

	pacer := s.newPacer()
	defer pacer.Stop()
	for s.looping() {
		if err := pacer.Wait(ctx); err != nil {
			return
		}
		frame, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || !s.looping() {
				return
			}
			s.fail(ctx, dErrors.Wrap(err, dErrors.CodeUnavailable, MessageCameraError))
			return
		}
		s.handleFrame(ctx, frame)
	}
}

func (s *Session) enterStreaming(stream Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaitingPermission {
		return false
	}
	s.stream = stream
	s.streamingSince = time.Now()
	s.setPhase(PhaseStreaming)
	s.metrics.CameraAcquired()
	return true
}

func (s *Session) looping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseStreaming || s.phase == PhaseDetecting
}

// handleFrame runs one Streaming -> Detecting cycle. Repeated timestamps
// are skipped.
func (s *Session) handleFrame(ctx context.Context, frame Frame) {
	s.mu.Lock()
	if s.phase != PhaseStreaming || frame.Timestamp == s.lastFrameTS {
		s.mu.Unlock()
		return
	}
	s.lastFrameTS = frame.Timestamp
	s.attempts++
	s.setPhase(PhaseDetecting)
	s.mu.Unlock()

	res, err := s.detector.Detect(ctx, frame.Image, frame.Timestamp)
	s.onDetection(ctx, frame, res, err)
}

func (s *Session) onDetection(ctx context.Context, frame Frame, res detector.Result, err error) {
	s.mu.Lock()
	if s.phase != PhaseDetecting {
		s.mu.Unlock()
		return
	}

	switch {
	case errors.Is(err, detector.ErrFrameSuperseded):
		s.setPhase(PhaseStreaming)
	case err != nil:
		s.consecutiveFailures++
		s.logger.WarnContext(ctx, "face detection failed",
			"session_id", s.id.String(),
			"consecutive_failures", s.consecutiveFailures,
			"category", detector.GetCategory(err),
			"retryable", detector.IsRetryable(err),
			"error", err)
		if detector.IsFatal(err) || s.consecutiveFailures > s.maxRetries {
			stream, out := s.finishLocked(PhaseFailed,
				dErrors.Wrap(err, dErrors.CodeDetectionUnavailable, MessageDetectionUnavailable))
			s.mu.Unlock()
			s.complete(ctx, stream, out)
			return
		}
		s.setPhase(PhaseStreaming)
	case !res.Adequate():
		s.consecutiveFailures = 0
		s.setPhase(PhaseStreaming)
	default:
		s.consecutiveFailures = 0
		s.setPhase(PhaseCaptured)
		blob, exportErr := exportFrame(frame.Image, nil)
		if exportErr != nil {
			stream, out := s.finishLocked(PhaseFailed, exportErr)
			s.mu.Unlock()
			s.complete(ctx, stream, out)
			return
		}
		s.face = &blob
		s.captures++
		s.metrics.ObserveTimeToCapture(time.Since(s.streamingSince))
		stream, out := s.finishLocked(PhaseStopped, nil)
		s.mu.Unlock()
		s.complete(ctx, stream, out)
		return
	}
	s.mu.Unlock()
}

// ProcessStill runs one detection over an uploaded image. It is only valid
// from Idle; when no face is found the session stays Idle and the camera is
// never touched.
func (s *Session) ProcessStill(ctx context.Context, data []byte) (raster.Blob, error) {
	s.mu.Lock()
	if s.phase != PhaseIdle || s.stillBusy {
		s.mu.Unlock()
		return raster.Blob{}, dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeInvariantViolation, "still images are only accepted before capture starts")
	}
	s.stillBusy = true
	s.attempts++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.stillBusy = false
		s.mu.Unlock()
	}()

	img, err := raster.Decode(data)
	if err != nil {
		return raster.Blob{}, err
	}
	res, err := s.detector.Detect(ctx, img, time.Since(s.created))
	if err != nil {
		return raster.Blob{}, err
	}
	if !res.Adequate() {
		return raster.Blob{}, dErrors.New(dErrors.CodeNoFaceInImage, MessageNoFace)
	}
	blob, err := exportFrame(img, res.Landmarks())
	if err != nil {
		return raster.Blob{}, err
	}

	s.mu.Lock()
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return raster.Blob{}, dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeInvariantViolation, "capture session ended during still processing")
	}
	s.lastFrameTS = res.FrameTimestamp
	s.setPhase(PhaseCaptured)
	s.face = &blob
	s.captures++
	s.still = true
	stream, out := s.finishLocked(PhaseStopped, nil)
	s.mu.Unlock()
	s.complete(ctx, stream, out)
	return blob, nil
}

func (s *Session) fail(ctx context.Context, err error) {
	s.mu.Lock()
	if s.phase.Terminal() {
		s.mu.Unlock()
		return
	}
	stream, out := s.finishLocked(PhaseFailed, err)
	s.mu.Unlock()
	s.complete(ctx, stream, out)
}

// finishLocked moves to a terminal phase and detaches the camera. The
// caller must hold s.mu and pass the results to complete after unlocking.
func (s *Session) finishLocked(phase Phase, err error) (Stream, Outcome) {
	s.setPhase(phase)
	s.err = err
	stream := s.stream
	s.stream = nil
	if s.cancel != nil {
		s.cancel()
	}
	return stream, Outcome{
		SessionID: s.id,
		Phase:     phase,
		Face:      s.face,
		Err:       err,
		Attempts:  s.attempts,
		Still:     s.still,
	}
}

func (s *Session) complete(ctx context.Context, stream Stream, out Outcome) {
	if stream != nil {
		if err := stream.Close(); err != nil {
			s.logger.WarnContext(ctx, "camera release failed", "session_id", s.id.String(), "error", err)
		}
		s.metrics.CameraReleased()
	}
	s.metrics.IncrementOutcome(out.Label())
	s.metrics.ObserveAttempts(out.Attempts)

	attrs := []any{
		"session_id", s.id.String(),
		"outcome", out.Label(),
		"detection_attempts", out.Attempts,
	}
	if out.Face != nil {
		attrs = append(attrs, "face_size", out.Face.Size())
	}
	if out.Err != nil {
		s.logger.WarnContext(ctx, "capture session failed", append(attrs, "error", out.Err)...)
	} else {
		s.logger.InfoContext(ctx, "capture session ended", attrs...)
	}

	if s.onComplete != nil {
		s.onComplete(out)
	}
	close(s.done)
}

func (s *Session) setPhase(to Phase) {
	from := s.phase
	if from == to {
		return
	}
	s.phase = to
	if s.onTransition != nil {
		s.onTransition(from, to)
	}
}

// exportFrame freezes img into a JPEG, optionally annotated with landmark
// dots.
func exportFrame(img image.Image, overlay []raster.Point) (raster.Blob, error) {
	if img == nil {
		return raster.Blob{}, dErrors.New(dErrors.CodeInvalidGeometry, "no frame to capture")
	}
	b := img.Bounds()
	surface, err := raster.NewSurface(b.Dx(), b.Dy())
	if err != nil {
		return raster.Blob{}, err
	}
	if err := surface.DrawImage(img, image.Rect(0, 0, b.Dx(), b.Dy())); err != nil {
		return raster.Blob{}, err
	}
	if len(overlay) > 0 {
		pts := make([]raster.Point, len(overlay))
		for i, p := range overlay {
			pts[i] = raster.Point{X: p.X - float64(b.Min.X), Y: p.Y - float64(b.Min.Y)}
		}
		surface.DrawPoints(pts, overlayRadius, overlayColor)
	}
	return surface.Export(raster.KindJPEG)
}
