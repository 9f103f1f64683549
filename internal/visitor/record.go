// Package visitor holds the enrollment record collected at the kiosk.
package visitor

import (
	"strings"
	"sync"
	"time"

	"kiosk/internal/raster"
	"kiosk/pkg/domain"
	dErrors "kiosk/pkg/domain-errors"
)

// Field names one input of the record. The order is the form order and
// drives the order of validation problems.
type Field int

const (
	FieldName Field = iota
	FieldSurname
	FieldContact
	FieldEmail
	FieldNationalID
	FieldPurpose
	FieldOtherReason
	FieldOrganization
	FieldConsent
	FieldSignature
	FieldFace
)

var fieldNames = [...]string{
	FieldName:         "name",
	FieldSurname:      "surname",
	FieldContact:      "contact",
	FieldEmail:        "email",
	FieldNationalID:   "national_id",
	FieldPurpose:      "purpose",
	FieldOtherReason:  "other_reason",
	FieldOrganization: "organization",
	FieldConsent:      "consent",
	FieldSignature:    "signature",
	FieldFace:         "face",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// MarshalText encodes the field by name.
func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// IsText reports whether the field is set with SetField.
func (f Field) IsText() bool {
	return f >= FieldName && f <= FieldOrganization
}

// ParseField resolves a text field by name.
func ParseField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range fieldNames {
		if n == name && Field(i).IsText() {
			return Field(i), nil
		}
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, "unknown field: "+name)
}

// Snapshot is an immutable copy of the record.
type Snapshot struct {
	ID             domain.RecordID
	Name           string
	Surname        string
	Contact        string
	Email          string
	NationalID     string
	Purpose        domain.VisitPurpose
	OtherReason    string
	Organization   string
	ConsentGranted bool
	Signature      *raster.Blob
	Face           *raster.Blob
	SubmittedAt    *time.Time
}

// Record is the visitor's enrollment record. It is safe for concurrent use.
//
// Invariant: SubmittedAt is set exactly once, by MarkSubmitted. A submitted
// record is sealed and every setter fails.
type Record struct {
	mu   sync.RWMutex
	snap Snapshot
}

// New creates an empty record with a fresh id.
func New() *Record {
	return &Record{snap: Snapshot{ID: domain.NewRecordID()}}
}

// SetField sets one text field.
func (r *Record) SetField(f Field, value string) error {
	if !f.IsText() {
		return dErrors.New(dErrors.CodeInvalidInput, f.String()+" is not a text field")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.mutableLocked(); err != nil {
		return err
	}
	switch f {
	case FieldName:
		r.snap.Name = value
	case FieldSurname:
		r.snap.Surname = value
	case FieldContact:
		r.snap.Contact = value
	case FieldEmail:
		r.snap.Email = value
	case FieldNationalID:
		r.snap.NationalID = value
	case FieldPurpose:
		r.snap.Purpose = domain.VisitPurpose(value)
	case FieldOtherReason:
		r.snap.OtherReason = value
	case FieldOrganization:
		r.snap.Organization = value
	}
	return nil
}

// SetConsent records the consent decision.
func (r *Record) SetConsent(granted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.mutableLocked(); err != nil {
		return err
	}
	r.snap.ConsentGranted = granted
	return nil
}

// SetSignature attaches or (with nil) removes the signature image.
func (r *Record) SetSignature(blob *raster.Blob) error {
	return r.setArtifact(&r.snap.Signature, blob)
}

// SetFace attaches or (with nil) removes the face image.
func (r *Record) SetFace(blob *raster.Blob) error {
	return r.setArtifact(&r.snap.Face, blob)
}

func (r *Record) setArtifact(slot **raster.Blob, blob *raster.Blob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.mutableLocked(); err != nil {
		return err
	}
	if blob == nil || blob.IsZero() {
		*slot = nil
		return nil
	}
	b := *blob
	*slot = &b
	return nil
}

// MarkSubmitted seals the record. A second call fails.
func (r *Record) MarkSubmitted(at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.mutableLocked(); err != nil {
		return err
	}
	t := at
	r.snap.SubmittedAt = &t
	return nil
}

// Submitted reports whether MarkSubmitted has run.
func (r *Record) Submitted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap.SubmittedAt != nil
}

// ID returns the record id.
func (r *Record) ID() domain.RecordID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap.ID
}

// Snapshot returns a copy of the current values.
func (r *Record) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.snap
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		s.SubmittedAt = &t
	}
	return s
}

func (r *Record) mutableLocked() error {
	if r.snap.SubmittedAt != nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "record already submitted")
	}
	return nil
}
