package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance (POPIA consent,
	// personal data leaving the kiosk).
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent names an auditable action.
type AuditEvent string

const (
	// Consent events
	EventConsentGranted  AuditEvent = "consent_granted"
	EventConsentDeclined AuditEvent = "consent_declined"

	// Capture events
	EventCaptureCompleted AuditEvent = "capture_completed"
	EventCaptureFailed    AuditEvent = "capture_failed"

	// Submission events
	EventSubmissionSucceeded   AuditEvent = "submission_succeeded"
	EventSubmissionRejected    AuditEvent = "submission_rejected"
	EventSubmissionUnavailable AuditEvent = "submission_unavailable"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventConsentGranted:      CategoryCompliance,
	EventConsentDeclined:     CategoryCompliance,
	EventSubmissionSucceeded: CategoryCompliance,

	EventCaptureCompleted:      CategoryOperations,
	EventCaptureFailed:         CategoryOperations,
	EventSubmissionRejected:    CategoryOperations,
	EventSubmissionUnavailable: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is one audit trail entry. It never carries raw personal data: the
// national ID appears only as SubjectIDHash.
type Event struct {
	ID            uuid.UUID
	Category      EventCategory
	Timestamp     time.Time
	Action        AuditEvent
	RecordID      string
	SessionID     string
	SubjectIDHash string
	Decision      string
	Reason        string
	RequestID     string
	KioskID       string
}
