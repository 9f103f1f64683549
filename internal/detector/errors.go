package detector

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory normalizes detection backend failures.
type ErrorCategory string

const (
	// ErrorNotInitialized means Detect ran before a successful Initialize.
	ErrorNotInitialized ErrorCategory = "not_initialized"

	// ErrorTimeout means the backend did not answer in time.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData means the backend answered with something unparseable.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorBackendOutage means the backend is unreachable or failing.
	ErrorBackendOutage ErrorCategory = "backend_outage"

	// ErrorModelLoad means the model or runtime could not be fetched or parsed.
	ErrorModelLoad ErrorCategory = "model_load"

	// ErrorSessionLost means the backend no longer holds the loaded model.
	// The adapter drops its landmarker and reloads before the next frame.
	ErrorSessionLost ErrorCategory = "session_lost"

	// ErrorInternal covers anything else.
	ErrorInternal ErrorCategory = "internal"
)

// ErrFrameSuperseded is returned to a pending caller whose frame was
// replaced by a newer one before it got a turn.
var ErrFrameSuperseded = errors.New("frame superseded by a newer frame")

// DetectionError wraps backend failures with a normalized category.
type DetectionError struct {
	Category   ErrorCategory
	Message    string
	Underlying error
	Retryable  bool
}

func (e *DetectionError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("detector [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("detector [%s]: %s", e.Category, e.Message)
}

func (e *DetectionError) Unwrap() error {
	return e.Underlying
}

// NewDetectionError builds a categorized error. Timeouts, outages and lost
// sessions are retryable on the next frame.
func NewDetectionError(category ErrorCategory, message string, underlying error) *DetectionError {
	return &DetectionError{
		Category:   category,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorBackendOutage || category == ErrorSessionLost,
	}
}

// IsRetryable reports whether err is a retryable detection failure.
func IsRetryable(err error) bool {
	var de *DetectionError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// IsFatal reports whether no later frame can succeed without operator
// action: the model never loaded or cannot be loaded.
func IsFatal(err error) bool {
	switch GetCategory(err) {
	case ErrorNotInitialized, ErrorModelLoad:
		return true
	default:
		return false
	}
}

// GetCategory extracts the category from err, or ErrorInternal.
func GetCategory(err error) ErrorCategory {
	var de *DetectionError
	if errors.As(err, &de) {
		return de.Category
	}
	return ErrorInternal
}

func classify(err error) *DetectionError {
	var de *DetectionError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewDetectionError(ErrorTimeout, "detection timed out", err)
	}
	return NewDetectionError(ErrorBackendOutage, "detection backend failed", err)
}
