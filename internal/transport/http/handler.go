// Package httptransport is the JSON API the kiosk front-end drives: consent,
// form fields, signature input, camera frames, submission and the
// notification feed.
package httptransport

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kiosk/internal/audit"
	"kiosk/internal/capture"
	"kiosk/internal/notify"
	"kiosk/internal/raster"
	"kiosk/internal/signature"
	"kiosk/internal/submission"
	"kiosk/internal/validation"
	"kiosk/internal/visitor"
	"kiosk/pkg/domain"
	dErrors "kiosk/pkg/domain-errors"
	"kiosk/pkg/platform/httputil"
	"kiosk/pkg/requestcontext"
)

const (
	// maxImageBytes bounds uploaded stills and pushed frames.
	maxImageBytes = 10 << 20
	// maxImageJSONBytes leaves room for base64 and the JSON envelope around
	// a data URL carrying maxImageBytes of image.
	maxImageJSONBytes = maxImageBytes/3*4 + 64<<10

	defaultEventWait = 25 * time.Second

	defaultVisitLimit = 50
	maxVisitLimit     = 500
)

// Flow is the check-in flow for the kiosk.
type Flow interface {
	GrantConsent(ctx context.Context) error
	DeclineConsent(ctx context.Context)
	ConsentGranted() bool
	SetField(field visitor.Field, value string) (validation.Result, error)
	Validate() validation.Result
	Record() *visitor.Record
	Pad() *signature.Pad
	StartCapture(ctx context.Context) (*capture.Session, error)
	ActiveCapture() *capture.Session
	CancelCapture()
	UploadStill(ctx context.Context, data []byte) (raster.Blob, error)
	Submit(ctx context.Context) (*submission.Ack, error)
	Leave(ctx context.Context) error
}

// Camera receives permission decisions and frames from the browser.
type Camera interface {
	Decide(granted bool) error
	Push(img image.Image) error
	AwaitingPermission() bool
	Held() bool
}

// Events is the notification feed the front-end long-polls.
type Events interface {
	Wait(ctx context.Context, n int) ([]notify.Event, error)
}

// Visits reads completed check-ins from the audit trail.
type Visits interface {
	List(ctx context.Context, recordID string) ([]audit.Event, error)
	Recent(ctx context.Context, limit int, actions ...audit.AuditEvent) ([]audit.Event, error)
}

// HealthCheck reports an unhealthy dependency with a non-nil error.
type HealthCheck func(ctx context.Context) error

// Handler wires the kiosk endpoints to the check-in flow.
type Handler struct {
	flow     Flow
	camera   Camera
	events   Events
	visits   Visits
	logger   *slog.Logger
	checks   map[string]HealthCheck
	maxWait  time.Duration
	purposes []string
}

// Option configures a Handler.
type Option func(*Handler)

// WithHealthCheck adds a named dependency to GET /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) { h.checks[name] = check }
}

// WithVisits enables the check-in history endpoints under /api/visits.
func WithVisits(v Visits) Option {
	return func(h *Handler) { h.visits = v }
}

// WithMaxEventWait caps how long GET /api/events blocks.
func WithMaxEventWait(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.maxWait = d
		}
	}
}

// WithPurposes replaces the visit purposes offered on the form.
func WithPurposes(purposes []string) Option {
	return func(h *Handler) {
		if len(purposes) > 0 {
			h.purposes = purposes
		}
	}
}

// New constructs the handler.
func New(flow Flow, camera Camera, events Events, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		flow:    flow,
		camera:  camera,
		events:  events,
		logger:  logger,
		checks:  make(map[string]HealthCheck),
		maxWait: defaultEventWait,
	}
	for _, p := range domain.DefaultPurposes {
		h.purposes = append(h.purposes, p.String())
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the kiosk endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/purposes", h.HandlePurposes)
	r.Post("/consent", h.HandleConsent)

	r.Get("/visitor", h.HandleGetVisitor)
	r.Put("/visitor/fields/{field}", h.HandleSetField)
	r.Get("/visitor/validation", h.HandleValidation)

	r.Post("/signature/pointer", h.HandlePointer)
	r.Delete("/signature", h.HandleClearSignature)

	r.Post("/capture", h.HandleStartCapture)
	r.Get("/capture", h.HandleGetCapture)
	r.Delete("/capture", h.HandleCancelCapture)
	r.Post("/capture/permission", h.HandlePermission)
	r.Post("/capture/frames", h.HandleFrame)
	r.Post("/capture/still", h.HandleStill)

	r.Post("/submit", h.HandleSubmit)
	r.Get("/events", h.HandleEvents)
	r.Post("/leave", h.HandleLeave)

	if h.visits != nil {
		r.Get("/visits", h.HandleListVisits)
		r.Get("/visits/{record_id}", h.HandleGetVisit)
	}
}

// HandlePurposes handles GET /api/purposes.
func (h *Handler) HandlePurposes(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, PurposesResponse{
		Purposes: h.purposes,
		Other:    domain.PurposeOther.String(),
	})
}

// HandleConsent handles POST /api/consent.
func (h *Handler) HandleConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ConsentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if !*req.Accepted {
		h.flow.DeclineConsent(ctx)
		httputil.WriteJSON(w, http.StatusOK, ConsentResponse{ConsentGranted: false})
		return
	}
	if err := h.flow.GrantConsent(ctx); err != nil {
		h.logger.WarnContext(ctx, "consent not recorded",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ConsentResponse{ConsentGranted: true})
}

// HandleGetVisitor handles GET /api/visitor.
func (h *Handler) HandleGetVisitor(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toVisitorResponse(h.flow.Record().Snapshot()))
}

// HandleSetField handles PUT /api/visitor/fields/{field}.
func (h *Handler) HandleSetField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	field, err := visitor.ParseField(chi.URLParam(r, "field"))
	if err != nil || !field.IsText() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown form field"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[FieldRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.flow.SetField(field, req.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "field not updated",
			"request_id", requestID,
			"field", field.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleValidation handles GET /api/visitor/validation.
func (h *Handler) HandleValidation(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.flow.Validate())
}

// HandlePointer handles POST /api/signature/pointer.
func (h *Handler) HandlePointer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[PointerRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	pad := h.flow.Pad()
	switch req.Type {
	case PointerDown:
		pad.PointerDown(req.point())
	case PointerMove:
		pad.PointerMove(req.point())
	case PointerUp:
		pad.PointerUp()
	case PointerLeave:
		pad.PointerLeave()
	}
	httputil.WriteJSON(w, http.StatusOK, toSignatureResponse(pad))
}

// HandleClearSignature handles DELETE /api/signature.
func (h *Handler) HandleClearSignature(w http.ResponseWriter, r *http.Request) {
	pad := h.flow.Pad()
	pad.Clear()
	httputil.WriteJSON(w, http.StatusOK, toSignatureResponse(pad))
}

// HandleStartCapture handles POST /api/capture. The session then waits for
// POST /api/capture/permission.
func (h *Handler) HandleStartCapture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.flow.StartCapture(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "capture not started",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, h.captureResponse(session))
}

// HandleGetCapture handles GET /api/capture.
func (h *Handler) HandleGetCapture(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.captureResponse(h.flow.ActiveCapture()))
}

// HandleCancelCapture handles DELETE /api/capture.
func (h *Handler) HandleCancelCapture(w http.ResponseWriter, r *http.Request) {
	h.flow.CancelCapture()
	httputil.WriteJSON(w, http.StatusOK, h.captureResponse(h.flow.ActiveCapture()))
}

// HandlePermission handles POST /api/capture/permission.
func (h *Handler) HandlePermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[PermissionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.camera.Decide(*req.Granted); err != nil {
		h.logger.WarnContext(ctx, "permission decision rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFrame handles POST /api/capture/frames: one camera frame as a raw
// image body or a JSON data URL.
func (h *Handler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, ok := h.readImage(w, r)
	if !ok {
		return
	}
	img, err := raster.Decode(data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.camera.Push(img); err != nil {
		h.logger.DebugContext(ctx, "frame dropped",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleStill handles POST /api/capture/still.
func (h *Handler) HandleStill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data, ok := h.readImage(w, r)
	if !ok {
		return
	}
	blob, err := h.flow.UploadStill(ctx, data)
	if err != nil {
		h.logger.InfoContext(ctx, "still rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StillResponse{Selfie: blob.DataURL()})
}

// HandleSubmit handles POST /api/submit. The visitor-facing message is also
// delivered through the event feed.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ack, err := h.flow.Submit(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		var serr *submission.Error
		if errors.As(err, &serr) {
			httputil.WriteJSON(w, httputil.StatusFor(serr.Code()), toSubmitErrorResponse(serr))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSubmitResponse(ack))
}

// HandleEvents handles GET /api/events?wait=10s. It blocks until an event is
// available or the wait elapses, then returns what is buffered.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	wait := h.maxWait
	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "wait must be a duration"))
			return
		}
		wait = min(d, h.maxWait)
	}

	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()
	events, err := h.events.Wait(ctx, 0)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		h.logger.DebugContext(ctx, "event wait aborted",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		if errors.Is(err, context.Canceled) {
			err = dErrors.Wrap(err, dErrors.CodeTimeout, "event wait cancelled")
		}
		httputil.WriteError(w, err)
		return
	}
	if events == nil {
		events = []notify.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, EventsResponse{Events: events})
}

// HandleListVisits handles GET /api/visits?limit=50: the newest completed
// check-ins first.
func (h *Handler) HandleListVisits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultVisitLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive number"))
			return
		}
		limit = min(n, maxVisitLimit)
	}

	events, err := h.visits.Recent(ctx, limit, audit.EventSubmissionSucceeded)
	if err != nil {
		h.logger.ErrorContext(ctx, "visit history unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "Could not load visitor data. Please try again later."))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVisitsResponse(events))
}

// HandleGetVisit handles GET /api/visits/{record_id}: the audit trail of
// one visitor record.
func (h *Handler) HandleGetVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRecordID(chi.URLParam(r, "record_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.visits.List(ctx, id.String())
	if err != nil {
		h.logger.ErrorContext(ctx, "visit trail unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"record_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "Could not load visitor data. Please try again later."))
		return
	}
	if len(events) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "visit not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVisitDetailResponse(id.String(), events))
}

// HandleLeave handles POST /api/leave: the visitor walked away.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.flow.Leave(ctx); err != nil {
		h.logger.ErrorContext(ctx, "reset failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}

func (h *Handler) captureResponse(s *capture.Session) CaptureResponse {
	resp := CaptureResponse{
		Phase:              phaseName(s),
		AwaitingPermission: h.camera.AwaitingPermission(),
		CameraHeld:         h.camera.Held(),
	}
	if s != nil {
		resp.SessionID = s.ID().String()
		resp.DetectionAttempts = s.DetectionAttempts()
	}
	return resp
}

// readImage reads a raw image body, or a JSON {"data_url": ...} body.
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	ctx := r.Context()
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		req, ok := httputil.DecodeAndPrepareLimit[ImageRequest](w, r, maxImageJSONBytes, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return nil, false
		}
		return req.blob.Data, true
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "image body too large or unreadable"))
		return nil, false
	}
	return data, true
}
