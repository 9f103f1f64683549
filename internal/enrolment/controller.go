// Package enrolment runs one kiosk's visitor check-in: it owns the current
// visitor record and routes consent, form input, signature strokes, photo
// capture and submission to the components that handle them.
package enrolment

import (
	"context"
	"log/slog"
	"sync"

	"kiosk/internal/audit"
	"kiosk/internal/capture"
	"kiosk/internal/consent"
	"kiosk/internal/notify"
	"kiosk/internal/raster"
	"kiosk/internal/signature"
	"kiosk/internal/submission"
	"kiosk/internal/validation"
	"kiosk/internal/visitor"
	"kiosk/pkg/domain"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/requestcontext"
)

// User-facing messages for the still upload path.
const (
	MessageInvalidUpload = "Please upload a valid image file."
	MessageStillFailed   = "Unable to process the image. Please try again."
)

// Deps are the collaborators a Controller drives.
type Deps struct {
	Capture   *capture.Manager
	Transport submission.Transport
	Sink      notify.Sink
	Navigator notify.Navigator
	Auditor   *audit.Publisher
}

// Controller is the check-in flow for a single kiosk. It is safe for
// concurrent use.
type Controller struct {
	capture   *capture.Manager
	pipeline  *submission.Pipeline
	sink      notify.Sink
	navigator notify.Navigator
	auditor   *audit.Publisher
	gate      *consent.Gate
	logger    *slog.Logger
	kioskID   string
	padWidth  int
	padHeight int
	subOpts   []submission.Option

	mu     sync.Mutex
	record *visitor.Record
	pad    *signature.Pad
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

func WithKioskID(id string) Option {
	return func(c *Controller) { c.kioskID = id }
}

// WithSignatureSize sets the signature canvas size in pixels.
func WithSignatureSize(w, h int) Option {
	return func(c *Controller) {
		c.padWidth, c.padHeight = w, h
	}
}

// WithSubmissionOptions passes options through to the submission pipeline.
func WithSubmissionOptions(opts ...submission.Option) Option {
	return func(c *Controller) { c.subOpts = append(c.subOpts, opts...) }
}

// New creates a controller with an empty visitor record. Successful
// submissions navigate home through the controller, which resets the
// record before forwarding to deps.Navigator.
func New(deps Deps, opts ...Option) (*Controller, error) {
	c := &Controller{
		capture:   deps.Capture,
		sink:      deps.Sink,
		navigator: deps.Navigator,
		auditor:   deps.Auditor,
		gate:      consent.NewGate(),
		logger:    slog.Default(),
		padWidth:  signature.DefaultWidth,
		padHeight: signature.DefaultHeight,
	}
	for _, opt := range opts {
		opt(c)
	}

	subOpts := append([]submission.Option{
		submission.WithLogger(c.logger),
		submission.WithKioskID(c.kioskID),
	}, c.subOpts...)
	if c.auditor != nil {
		subOpts = append(subOpts, submission.WithAuditor(c.auditor))
	}
	c.pipeline = submission.New(deps.Transport, c.sink, notify.NavigatorFunc(c.NavigateHome), subOpts...)

	if err := c.reset(); err != nil {
		return nil, err
	}
	return c, nil
}

// reset starts a fresh visitor: new record, blank pad, no consent.
func (c *Controller) reset() error {
	surface, err := raster.NewSurface(c.padWidth, c.padHeight)
	if err != nil {
		return err
	}
	record := visitor.New()
	pad := signature.New(surface, func(blob *raster.Blob) {
		if err := record.SetSignature(blob); err != nil {
			c.logger.Warn("signature not stored", "record_id", record.ID().String(), "error", err)
		}
	}, signature.WithLogger(c.logger))

	c.mu.Lock()
	old := c.pad
	c.record = record
	c.pad = pad
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	c.gate.Reset()
	return nil
}

func (c *Controller) current() (*visitor.Record, *signature.Pad) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record, c.pad
}

// Record returns the current visitor record.
func (c *Controller) Record() *visitor.Record {
	r, _ := c.current()
	return r
}

// Pad returns the current signature pad.
func (c *Controller) Pad() *signature.Pad {
	_, p := c.current()
	return p
}

// Pipeline exposes the submission pipeline (in-flight state, navigation).
func (c *Controller) Pipeline() *submission.Pipeline {
	return c.pipeline
}

// ConsentGranted reports the consent gate.
func (c *Controller) ConsentGranted() bool {
	return c.gate.ConsentGranted()
}

// GrantConsent records acceptance of the POPIA terms.
func (c *Controller) GrantConsent(ctx context.Context) error {
	record := c.Record()
	if err := record.SetConsent(true); err != nil {
		return err
	}
	c.gate.Grant()
	c.emit(ctx, record, audit.Event{Action: audit.EventConsentGranted, Decision: "granted"})
	return nil
}

// DeclineConsent records refusal, tells the visitor why they cannot
// continue and returns the kiosk to the home screen.
func (c *Controller) DeclineConsent(ctx context.Context) {
	record := c.Record()
	if err := record.SetConsent(false); err != nil {
		c.logger.WarnContext(ctx, "consent withdrawal not stored", "record_id", record.ID().String(), "error", err)
	}
	c.gate.Decline()
	c.emit(ctx, record, audit.Event{Action: audit.EventConsentDeclined, Decision: "declined"})
	c.sink.Notify(notify.KindInfo, consent.MessageDeclined)
	c.NavigateHome()
}

// SetField updates one text field and returns the new validation state.
func (c *Controller) SetField(field visitor.Field, value string) (validation.Result, error) {
	record := c.Record()
	if err := record.SetField(field, value); err != nil {
		return validation.Result{}, err
	}
	return validation.Validate(record.Snapshot()), nil
}

// Validate returns the validation state of the current record.
func (c *Controller) Validate() validation.Result {
	return validation.Validate(c.Record().Snapshot())
}

// StartCapture opens a live capture session for the current visitor.
func (c *Controller) StartCapture(ctx context.Context) (*capture.Session, error) {
	if err := c.requireConsent(); err != nil {
		return nil, err
	}
	record := c.Record()
	return c.capture.Begin(ctx, capture.WithOnComplete(c.onCapture(ctx, record)))
}

// ActiveCapture returns the most recent capture session, if any.
func (c *Controller) ActiveCapture() *capture.Session {
	return c.capture.Active()
}

// CancelCapture stops the active capture session, if any.
func (c *Controller) CancelCapture() {
	c.capture.Cancel()
}

// UploadStill runs the still-image path and stores the annotated face.
func (c *Controller) UploadStill(ctx context.Context, data []byte) (raster.Blob, error) {
	if err := c.requireConsent(); err != nil {
		return raster.Blob{}, err
	}
	record := c.Record()
	blob, err := c.capture.Still(ctx, data, capture.WithOnComplete(c.onCapture(ctx, record)))
	if err != nil {
		c.sink.Notify(notify.KindError, stillMessage(err))
		return raster.Blob{}, err
	}
	return blob, nil
}

func stillMessage(err error) string {
	switch {
	case dErrors.HasCode(err, dErrors.CodeInvalidInput):
		return MessageInvalidUpload
	case dErrors.HasCode(err, dErrors.CodeNoFaceInImage):
		return capture.MessageNoFace
	case dErrors.HasCode(err, dErrors.CodeConflict):
		return dErrors.MessageOf(err)
	default:
		return MessageStillFailed
	}
}

// onCapture stores a captured face on the record that was current when the
// session started, and reports live-session failures.
func (c *Controller) onCapture(ctx context.Context, record *visitor.Record) func(capture.Outcome) {
	ctx = context.WithoutCancel(ctx)
	return func(out capture.Outcome) {
		event := audit.Event{
			SessionID: out.SessionID.String(),
			Decision:  out.Label(),
		}
		switch {
		case out.Face != nil:
			if err := record.SetFace(out.Face); err != nil {
				c.logger.WarnContext(ctx, "face not stored", "record_id", record.ID().String(), "error", err)
				return
			}
			event.Action = audit.EventCaptureCompleted
			c.emit(ctx, record, event)
			c.sink.Notify(notify.KindSuccess, capture.MessageCaptured)
		case out.Err != nil:
			event.Action = audit.EventCaptureFailed
			event.Reason = string(dErrors.CodeOf(out.Err))
			c.emit(ctx, record, event)
			msg := dErrors.MessageOf(out.Err)
			if msg == "" {
				msg = capture.MessageCameraError
			}
			c.sink.Notify(notify.KindError, msg)
		}
	}
}

// Submit sends the current record. Messages reach the visitor through the
// notification sink; the returned error is for the caller's status code.
// Missing consent is reported together with every other form problem.
func (c *Controller) Submit(ctx context.Context) (*submission.Ack, error) {
	record := c.Record()
	if !c.gate.ConsentGranted() && !record.Submitted() {
		if err := record.SetConsent(false); err != nil {
			c.logger.WarnContext(ctx, "consent state not synced", "record_id", record.ID().String(), "error", err)
		}
	}
	return c.pipeline.Submit(ctx, record)
}

// Leave abandons the current visitor: the camera is released, the pad is
// cleared and a fresh record replaces the old one.
func (c *Controller) Leave(ctx context.Context) error {
	c.capture.Teardown()
	c.pipeline.CancelNavigation()
	old := c.Record()
	if err := c.reset(); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "visitor left",
		"record_id", old.ID().String(),
		"submitted", old.Submitted(),
	)
	return nil
}

// NavigateHome resets the flow and forwards the navigation request.
func (c *Controller) NavigateHome() {
	if err := c.Leave(context.Background()); err != nil {
		c.logger.Error("reset on navigation failed", "error", err)
	}
	c.navigator.NavigateHome()
}

// Close releases the camera and the pad.
func (c *Controller) Close() {
	c.capture.Teardown()
	c.pipeline.CancelNavigation()
	if pad := c.Pad(); pad != nil {
		pad.Close()
	}
}

func (c *Controller) requireConsent() error {
	return c.gate.Require()
}

func (c *Controller) emit(ctx context.Context, record *visitor.Record, e audit.Event) {
	if c.auditor == nil {
		return
	}
	e.KioskID = c.kioskID
	e.RequestID = requestcontext.RequestID(ctx)
	e.Timestamp = requestcontext.Now(ctx)
	e.RecordID = record.ID().String()
	if id := record.Snapshot().NationalID; id != "" {
		e.SubjectIDHash = domain.HashNationalID(id)
	}
	if err := c.auditor.Emit(ctx, e); err != nil {
		c.logger.WarnContext(ctx, "audit emit failed", "action", e.Action, "error", err)
	}
}
