package httptransport

import (
	"time"

	"kiosk/internal/audit"
	"kiosk/internal/capture"
	"kiosk/internal/notify"
	"kiosk/internal/signature"
	"kiosk/internal/submission"
	"kiosk/internal/validation"
	"kiosk/internal/visitor"
)

// VisitorResponse is the form state of the current visitor. Artifacts are
// reported by presence only.
type VisitorResponse struct {
	RecordID       string            `json:"record_id"`
	Name           string            `json:"name"`
	Surname        string            `json:"surname"`
	Contact        string            `json:"contact"`
	Email          string            `json:"email"`
	NationalID     string            `json:"idn"`
	Purpose        string            `json:"purpose"`
	OtherReason    string            `json:"other_reason,omitempty"`
	Organization   string            `json:"organization"`
	ConsentGranted bool              `json:"accepted_popia"`
	HasSignature   bool              `json:"has_signature"`
	HasSelfie      bool              `json:"has_selfie"`
	Submitted      bool              `json:"submitted"`
	Validation     validation.Result `json:"validation"`
}

func toVisitorResponse(s visitor.Snapshot) VisitorResponse {
	return VisitorResponse{
		RecordID:       s.ID.String(),
		Name:           s.Name,
		Surname:        s.Surname,
		Contact:        s.Contact,
		Email:          s.Email,
		NationalID:     s.NationalID,
		Purpose:        s.Purpose.String(),
		OtherReason:    s.OtherReason,
		Organization:   s.Organization,
		ConsentGranted: s.ConsentGranted,
		HasSignature:   s.Signature != nil,
		HasSelfie:      s.Face != nil,
		Submitted:      s.SubmittedAt != nil,
		Validation:     validation.Validate(s),
	}
}

// PurposesResponse lists the visit purposes. Choosing Other requires a
// free-text reason.
type PurposesResponse struct {
	Purposes []string `json:"purposes"`
	Other    string   `json:"other"`
}

// ConsentResponse reports the consent gate after a decision.
type ConsentResponse struct {
	ConsentGranted bool `json:"consent_granted"`
}

// SignatureResponse reports the pad after an input event.
type SignatureResponse struct {
	State        string `json:"state"`
	Strokes      int    `json:"strokes"`
	HasSignature bool   `json:"has_signature"`
}

func toSignatureResponse(p *signature.Pad) SignatureResponse {
	_, ok := p.Signature()
	return SignatureResponse{
		State:        p.State().String(),
		Strokes:      p.Strokes(),
		HasSignature: ok,
	}
}

// CaptureResponse describes the current capture session.
type CaptureResponse struct {
	SessionID          string `json:"session_id,omitempty"`
	Phase              string `json:"phase"`
	DetectionAttempts  int    `json:"detection_attempts"`
	AwaitingPermission bool   `json:"awaiting_permission"`
	CameraHeld         bool   `json:"camera_held"`
}

// StillResponse returns the annotated face from an uploaded still.
type StillResponse struct {
	Selfie string `json:"selfie"`
}

// SubmitResponse acknowledges a delivered record.
type SubmitResponse struct {
	RecordID    string    `json:"record_id"`
	RequestID   string    `json:"request_id"`
	StatusCode  int       `json:"status_code"`
	SubmittedAt time.Time `json:"submitted_at"`
	Message     string    `json:"message"`
}

func toSubmitResponse(ack *submission.Ack) SubmitResponse {
	return SubmitResponse{
		RecordID:    ack.RecordID.String(),
		RequestID:   ack.RequestID,
		StatusCode:  ack.StatusCode,
		SubmittedAt: ack.SubmittedAt,
		Message:     submission.MessageSuccess,
	}
}

// SubmitErrorResponse is the error envelope of POST /api/submit. Retryable
// tells the front-end whether resubmitting the same details may succeed.
type SubmitErrorResponse struct {
	Error            string                    `json:"error"`
	ErrorDescription string                    `json:"error_description,omitempty"`
	Kind             string                    `json:"kind"`
	Retryable        bool                      `json:"retryable"`
	Problems         []validation.FieldProblem `json:"problems,omitempty"`
}

func toSubmitErrorResponse(e *submission.Error) SubmitErrorResponse {
	return SubmitErrorResponse{
		Error:            string(e.Code()),
		ErrorDescription: e.Message(),
		Kind:             string(e.Kind),
		Retryable:        e.Retryable(),
		Problems:         e.Problems,
	}
}

// VisitSummary is one completed check-in. It carries no personal data.
type VisitSummary struct {
	RecordID    string    `json:"record_id"`
	RequestID   string    `json:"request_id,omitempty"`
	KioskID     string    `json:"kiosk_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// VisitsResponse is the body of GET /api/visits.
type VisitsResponse struct {
	Visits []VisitSummary `json:"visits"`
}

func toVisitsResponse(events []audit.Event) VisitsResponse {
	resp := VisitsResponse{Visits: make([]VisitSummary, 0, len(events))}
	for _, e := range events {
		resp.Visits = append(resp.Visits, VisitSummary{
			RecordID:    e.RecordID,
			RequestID:   e.RequestID,
			KioskID:     e.KioskID,
			SubmittedAt: e.Timestamp,
		})
	}
	return resp
}

// VisitEvent is one step of a visitor's check-in.
type VisitEvent struct {
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// VisitDetailResponse is the body of GET /api/visits/{record_id}.
type VisitDetailResponse struct {
	RecordID    string       `json:"record_id"`
	KioskID     string       `json:"kiosk_id,omitempty"`
	Submitted   bool         `json:"submitted"`
	SubmittedAt *time.Time   `json:"submitted_at,omitempty"`
	Events      []VisitEvent `json:"events"`
}

func toVisitDetailResponse(recordID string, events []audit.Event) VisitDetailResponse {
	resp := VisitDetailResponse{RecordID: recordID, Events: make([]VisitEvent, 0, len(events))}
	for _, e := range events {
		if e.KioskID != "" {
			resp.KioskID = e.KioskID
		}
		if e.Action == audit.EventSubmissionSucceeded {
			at := e.Timestamp
			resp.Submitted = true
			resp.SubmittedAt = &at
		}
		resp.Events = append(resp.Events, VisitEvent{
			Action:    string(e.Action),
			Category:  string(e.Category),
			Decision:  e.Decision,
			Reason:    e.Reason,
			SessionID: e.SessionID,
			At:        e.Timestamp,
		})
	}
	return resp
}

// EventsResponse carries drained notifications and navigation requests.
type EventsResponse struct {
	Events []notify.Event `json:"events"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func phaseName(s *capture.Session) string {
	if s == nil {
		return capture.PhaseIdle.String()
	}
	return s.Phase().String()
}
