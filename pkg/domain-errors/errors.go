// Package domainerrors carries the typed error codes shared by every layer of
// the kiosk. Services return these so transports and the notification layer
// can branch on a stable code instead of string matching.
//
// Usage:
//
//	return dErrors.New(dErrors.CodeValidation, "contact must be 10 digits")
//	return dErrors.Wrap(err, dErrors.CodeUnavailable, "enrollment service unreachable")
//
//	if dErrors.HasCode(err, dErrors.CodeNoFaceInImage) { ... }
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error category.
type Code string

// General codes.
const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeMissingConsent     Code = "missing_consent"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Capture and submission codes.
const (
	CodePermissionDenied     Code = "permission_denied"
	CodeDetectionUnavailable Code = "detection_unavailable"
	CodeNoFaceInImage        Code = "no_face_in_image"
	CodeInvalidGeometry      Code = "invalid_geometry"
	CodeModelLoad            Code = "model_load_error"
	CodeClientRejected       Code = "client_rejected"
	CodeUnavailable          Code = "unavailable"
)

// Error is a domain error with a code, a safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error without an underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping a nil error returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any domain error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// MessageOf returns the safe message of the outermost domain error.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
