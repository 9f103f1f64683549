// Package validation decides whether a visitor record may be submitted.
package validation

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"kiosk/internal/visitor"
	"kiosk/pkg/domain"
)

const (
	contactDigits    = 10
	nationalIDDigits = 13
)

// Problem codes.
const (
	CodeRequired        = "required"
	CodeLength          = "length"
	CodeFormat          = "format"
	CodeConsentRequired = "consent_required"
	CodeMissingArtifact = "missing_artifact"
)

// FieldProblem is one reason a field blocks (or, as a warning, does not
// block) submission.
type FieldProblem struct {
	Field   visitor.Field `json:"field"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
}

// Result is the derived validation state of a record.
type Result struct {
	Valid    bool           `json:"valid"`
	Problems []FieldProblem `json:"problems"`
	Warnings []FieldProblem `json:"warnings,omitempty"`
}

// Validate evaluates every rule against s. It never stops at the first
// problem and is a pure function of its input.
func Validate(s visitor.Snapshot) Result {
	var res Result
	add := func(f visitor.Field, code, msg string) {
		res.Problems = append(res.Problems, FieldProblem{Field: f, Code: code, Message: msg})
	}

	requireText(add, visitor.FieldName, s.Name, "Name is required.")
	requireText(add, visitor.FieldSurname, s.Surname, "Surname is required.")
	requireDigits(add, visitor.FieldContact, s.Contact, contactDigits,
		"Contact is required.", "Invalid Contact: Must contain exactly 10 digits")

	email := strings.TrimSpace(s.Email)
	if email == "" {
		add(visitor.FieldEmail, CodeRequired, "Email Address is required.")
	} else if !govalidator.IsEmail(email) {
		res.Warnings = append(res.Warnings, FieldProblem{
			Field:   visitor.FieldEmail,
			Code:    CodeFormat,
			Message: "Email Address does not look valid.",
		})
	}

	requireDigits(add, visitor.FieldNationalID, s.NationalID, nationalIDDigits,
		"ID number is required.", "Invalid ID number: Must contain exactly 13 digits")

	requireText(add, visitor.FieldPurpose, string(s.Purpose), "Purpose of Visit is required.")
	if s.Purpose.IsOther() && strings.TrimSpace(s.OtherReason) == "" {
		add(visitor.FieldOtherReason, CodeRequired, "Please specify the Other Reason.")
	}

	requireText(add, visitor.FieldOrganization, s.Organization, "Organization is required.")

	if !s.ConsentGranted {
		add(visitor.FieldConsent, CodeConsentRequired, "You must accept the POPIA terms to proceed.")
	}
	if s.Signature == nil || s.Signature.IsZero() {
		add(visitor.FieldSignature, CodeMissingArtifact, "Signature is required.")
	}
	if s.Face == nil || s.Face.IsZero() {
		add(visitor.FieldFace, CodeMissingArtifact, "A photo of your face is required.")
	}

	res.Valid = len(res.Problems) == 0
	return res
}

func requireText(add func(visitor.Field, string, string), f visitor.Field, v, msg string) {
	if strings.TrimSpace(v) == "" {
		add(f, CodeRequired, msg)
	}
}

func requireDigits(add func(visitor.Field, string, string), f visitor.Field, v string, n int, requiredMsg, lengthMsg string) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		add(f, CodeRequired, requiredMsg)
	case !domain.IsDigits(v, n):
		add(f, CodeLength, lengthMsg)
	}
}
