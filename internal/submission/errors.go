package submission

import (
	"fmt"
	"strings"

	"kiosk/internal/validation"
	dErrors "kiosk/pkg/domain-errors"
)

// ErrorKind classifies a failed submission.
type ErrorKind string

const (
	// KindValidationFailed: the record failed validation; nothing was sent.
	KindValidationFailed ErrorKind = "validation_failed"
	// KindClientRejected: the enrollment service answered 4xx.
	KindClientRejected ErrorKind = "client_rejected"
	// KindUnavailable: 5xx, a transport failure or a cancelled request.
	// Retrying later may succeed.
	KindUnavailable ErrorKind = "unavailable"
	// KindInFlight: another submission for this record or visitor is running.
	KindInFlight ErrorKind = "in_flight"
	// KindAlreadySubmitted: the record is sealed.
	KindAlreadySubmitted ErrorKind = "already_submitted"
)

// User-facing messages.
const (
	MessageSuccess     = "Visitor data submitted successfully."
	MessageUnavailable = "An error occurred while submitting data. Please try again."
	MessageRejected    = "The visitor details were not accepted. Please check them and try again."
	MessageInFlight    = "A submission is already in progress."
	MessageSubmitted   = "These visitor details have already been submitted."
)

var kindCodes = map[ErrorKind]dErrors.Code{
	KindValidationFailed: dErrors.CodeValidation,
	KindClientRejected:   dErrors.CodeClientRejected,
	KindUnavailable:      dErrors.CodeUnavailable,
	KindInFlight:         dErrors.CodeConflict,
	KindAlreadySubmitted: dErrors.CodeInvariantViolation,
}

// Error is returned by Pipeline.Submit. It unwraps to a domain error
// carrying the matching code, so dErrors.HasCode works on it.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Problems   []validation.FieldProblem
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("submission %s: status %d: %s", e.Kind, e.StatusCode, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("submission %s: %s: %v", e.Kind, e.Detail, e.Err)
	default:
		return fmt.Sprintf("submission %s: %s", e.Kind, e.Detail)
	}
}

func (e *Error) Unwrap() []error {
	coded := dErrors.New(e.Code(), e.Message())
	if e.Err == nil {
		return []error{coded}
	}
	return []error{coded, e.Err}
}

// Code returns the domain error code of the kind.
func (e *Error) Code() dErrors.Code {
	if c, ok := kindCodes[e.Kind]; ok {
		return c
	}
	return dErrors.CodeInternal
}

// Message is the text shown to the visitor.
func (e *Error) Message() string {
	switch e.Kind {
	case KindValidationFailed:
		return joinMessages(e.Problems)
	case KindClientRejected:
		return MessageRejected
	case KindInFlight:
		return MessageInFlight
	case KindAlreadySubmitted:
		return MessageSubmitted
	default:
		return MessageUnavailable
	}
}

// Retryable reports whether submitting the same record again may succeed
// without changes.
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable || e.Kind == KindInFlight
}

func joinMessages(problems []validation.FieldProblem) string {
	msgs := make([]string, len(problems))
	for i, p := range problems {
		msgs[i] = p.Message
	}
	return strings.Join(msgs, " ")
}
