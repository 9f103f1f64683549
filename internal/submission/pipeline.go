// Package submission sends a validated visitor record to the enrollment
// service and classifies the outcome.
package submission

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kiosk/internal/audit"
	"kiosk/internal/notify"
	"kiosk/internal/platform/lock"
	"kiosk/internal/submission/metrics"
	"kiosk/internal/validation"
	"kiosk/internal/visitor"
	"kiosk/pkg/domain"
	"kiosk/pkg/platform/sentinel"
	"kiosk/pkg/requestcontext"
)

// DefaultNavigationDelay is how long the success message shows before the
// kiosk returns home.
const DefaultNavigationDelay = 2 * time.Second

const (
	defaultLockTTL = 30 * time.Second
	maxDetailBytes = 256
)

// Scheduler runs f after d and returns a function that cancels it.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

// AfterFunc is the real-time Scheduler.
func AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Ack is a successful submission.
type Ack struct {
	RecordID    domain.RecordID
	RequestID   string
	StatusCode  int
	SubmittedAt time.Time
}

// Pipeline submits records. One submission runs at a time; a second call
// while one is in flight fails with KindInFlight.
type Pipeline struct {
	transport Transport
	sink      notify.Sink
	navigator notify.Navigator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	auditor   *audit.Publisher
	locker    lock.Locker
	lockTTL   time.Duration
	schedule  Scheduler
	delay     time.Duration
	kioskID   string
	clock     func() time.Time

	inFlight atomic.Bool

	navMu   sync.Mutex
	stopNav func() bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithAuditor records submission outcomes on the audit trail.
func WithAuditor(a *audit.Publisher) Option {
	return func(p *Pipeline) { p.auditor = a }
}

// WithLocker guards each submission with a lock on the visitor's
// national-ID hash.
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(p *Pipeline) {
		p.locker = l
		if ttl > 0 {
			p.lockTTL = ttl
		}
	}
}

// WithScheduler replaces time.AfterFunc for the post-success navigation.
func WithScheduler(s Scheduler) Option {
	return func(p *Pipeline) { p.schedule = s }
}

func WithNavigationDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.delay = d }
}

func WithKioskID(id string) Option {
	return func(p *Pipeline) { p.kioskID = id }
}

func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) { p.clock = clock }
}

func New(transport Transport, sink notify.Sink, navigator notify.Navigator, opts ...Option) *Pipeline {
	p := &Pipeline{
		transport: transport,
		sink:      sink,
		navigator: navigator,
		logger:    slog.Default(),
		tracer:    otel.Tracer("kiosk/submission"),
		lockTTL:   defaultLockTTL,
		schedule:  AfterFunc,
		delay:     DefaultNavigationDelay,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// InFlight reports whether a submission is running.
func (p *Pipeline) InFlight() bool {
	return p.inFlight.Load()
}

// Submit validates, sends and classifies one record. Errors are *Error.
// A failed submission leaves the record untouched; nothing is retried
// automatically.
func (p *Pipeline) Submit(ctx context.Context, record *visitor.Record) (*Ack, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.metrics.IncrementResult(string(KindInFlight))
		return nil, &Error{Kind: KindInFlight, Detail: "submission already in flight"}
	}
	defer p.inFlight.Store(false)

	if record.Submitted() {
		return nil, &Error{Kind: KindAlreadySubmitted, Detail: "record already submitted"}
	}

	snap := record.Snapshot()
	if res := validation.Validate(snap); !res.Valid {
		serr := &Error{Kind: KindValidationFailed, Detail: "record failed validation", Problems: res.Problems}
		p.metrics.IncrementResult(string(serr.Kind))
		p.sink.Notify(notify.KindError, serr.Message())
		p.logger.InfoContext(ctx, "submission blocked by validation",
			"record_id", snap.ID.String(),
			"problems", len(res.Problems),
		)
		return nil, serr
	}

	subjectHash := domain.HashNationalID(snap.NationalID)
	if p.locker != nil {
		release, err := p.locker.Acquire(ctx, subjectHash, p.lockTTL)
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			p.metrics.IncrementResult(string(KindInFlight))
			return nil, &Error{Kind: KindInFlight, Detail: "visitor is being enrolled elsewhere", Err: err}
		case err != nil:
			// The in-flight flag still guards this kiosk; a lock outage
			// must not stop visitors from checking in.
			p.logger.WarnContext(ctx, "submit lock unavailable, continuing without it", "error", err)
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					p.logger.WarnContext(ctx, "submit lock release failed", "error", err)
				}
			}()
		}
	}

	requestID := requestcontext.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	now := p.clock()

	ctx, span := p.tracer.Start(ctx, "submission.Submit", trace.WithAttributes(
		attribute.String("record.id", snap.ID.String()),
		attribute.String("request.id", requestID),
	))
	defer span.End()

	req := Request{
		RequestID: requestID,
		KioskID:   p.kioskID,
		IssuedAt:  now,
		Payload:   BuildPayload(snap, now),
	}
	p.metrics.ObservePayload(len(req.Payload.Signature) + len(req.Payload.Selfie))

	start := time.Now()
	resp, err := p.transport.Send(ctx, req)
	p.metrics.ObserveRequest(time.Since(start))

	if serr := classify(resp, err); serr != nil {
		span.RecordError(serr)
		span.SetStatus(codes.Error, string(serr.Kind))
		p.fail(ctx, snap, subjectHash, requestID, serr)
		return nil, serr
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if err := record.MarkSubmitted(now); err != nil {
		// The service already holds the data; report the ack regardless.
		p.logger.ErrorContext(ctx, "record could not be sealed after ack", "record_id", snap.ID.String(), "error", err)
	}

	ack := &Ack{RecordID: snap.ID, RequestID: requestID, StatusCode: resp.StatusCode, SubmittedAt: now}
	p.metrics.IncrementResult("ack")
	p.emit(ctx, audit.Event{
		Action:        audit.EventSubmissionSucceeded,
		RecordID:      snap.ID.String(),
		SubjectIDHash: subjectHash,
		Decision:      "accepted",
		RequestID:     requestID,
		KioskID:       p.kioskID,
	})
	p.logger.InfoContext(ctx, "visitor submitted",
		"record_id", snap.ID.String(),
		"request_id", requestID,
		"status", resp.StatusCode,
		"signature_size", snap.Signature.Size(),
		"face_size", snap.Face.Size(),
	)

	p.sink.Notify(notify.KindSuccess, MessageSuccess)
	p.scheduleNavigation()
	return ack, nil
}

// CancelNavigation stops a pending post-success navigation, if any.
func (p *Pipeline) CancelNavigation() bool {
	p.navMu.Lock()
	defer p.navMu.Unlock()
	if p.stopNav == nil {
		return false
	}
	stopped := p.stopNav()
	p.stopNav = nil
	return stopped
}

func (p *Pipeline) scheduleNavigation() {
	p.CancelNavigation()
	stop := p.schedule(p.delay, p.navigator.NavigateHome)
	p.navMu.Lock()
	p.stopNav = stop
	p.navMu.Unlock()
}

func (p *Pipeline) fail(ctx context.Context, snap visitor.Snapshot, subjectHash, requestID string, serr *Error) {
	p.metrics.IncrementResult(string(serr.Kind))
	p.sink.Notify(notify.KindError, serr.Message())

	action := audit.EventSubmissionUnavailable
	if serr.Kind == KindClientRejected {
		action = audit.EventSubmissionRejected
	}
	p.emit(ctx, audit.Event{
		Action:        action,
		RecordID:      snap.ID.String(),
		SubjectIDHash: subjectHash,
		Decision:      string(serr.Kind),
		Reason:        serr.Detail,
		RequestID:     requestID,
		KioskID:       p.kioskID,
	})
	p.logger.WarnContext(ctx, "visitor submission failed",
		"record_id", snap.ID.String(),
		"request_id", requestID,
		"kind", serr.Kind,
		"status", serr.StatusCode,
		"error", serr,
	)
}

func (p *Pipeline) emit(ctx context.Context, e audit.Event) {
	if p.auditor == nil {
		return
	}
	e.Timestamp = requestcontext.Now(ctx)
	if err := p.auditor.Emit(ctx, e); err != nil {
		p.logger.WarnContext(ctx, "audit emit failed", "action", e.Action, "error", err)
	}
}

// classify maps a transport result onto the error taxonomy. Nil means 2xx.
func classify(resp Response, err error) *Error {
	if err != nil {
		return &Error{Kind: KindUnavailable, Detail: "request failed", Err: err}
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &Error{Kind: KindClientRejected, StatusCode: resp.StatusCode, Detail: detail(resp)}
	default:
		return &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Detail: detail(resp)}
	}
}

func detail(resp Response) string {
	d := strings.TrimSpace(string(resp.Body))
	if d == "" {
		d = http.StatusText(resp.StatusCode)
	}
	return truncate(d, maxDetailBytes)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
