// Package gcerr defines the tagged error taxonomy shared across the
// gamecalls engine core. No exceptions cross a component boundary: every
// fallible operation returns a Go error, and callers that need to branch
// on failure kind use Kind/As instead of string matching.
package gcerr

import (
	"errors"
	"fmt"
)

// Kind tags an error with the public taxonomy from the engine contract.
type Kind int

const (
	KindUnspecified Kind = iota
	KindInvalidParams
	KindInvalidConfig
	KindInvalidAudioData
	KindInsufficientData
	KindSessionNotFound
	KindNoMasterCall
	KindFileNotFound
	KindProcessingError
	KindComponentError
	KindInitFailed
	KindOutOfMemory
	KindInternalError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParams:
		return "INVALID_PARAMS"
	case KindInvalidConfig:
		return "INVALID_CONFIG"
	case KindInvalidAudioData:
		return "INVALID_AUDIO_DATA"
	case KindInsufficientData:
		return "INSUFFICIENT_DATA"
	case KindSessionNotFound:
		return "SESSION_NOT_FOUND"
	case KindNoMasterCall:
		return "NO_MASTER_CALL"
	case KindFileNotFound:
		return "FILE_NOT_FOUND"
	case KindProcessingError:
		return "PROCESSING_ERROR"
	case KindComponentError:
		return "COMPONENT_ERROR"
	case KindInitFailed:
		return "INIT_FAILED"
	case KindOutOfMemory:
		return "OUT_OF_MEMORY"
	case KindInternalError:
		return "INTERNAL_ERROR"
	default:
		return "UNSPECIFIED"
	}
}

// Error is the single result-value error type returned across the core's
// API boundary: a taxonomy Kind, a human-readable context string, and an
// optional wrapped cause for component-level propagation.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with no wrapped cause.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Newf creates an Error with a formatted context string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Context: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error with a Kind and context, for propagating
// component-specific failures (e.g. an MFCC FFT_FAILED) as the public
// taxonomy (e.g. COMPONENT_ERROR) without losing the original cause.
func Wrap(kind Kind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and
// KindInternalError otherwise. Useful for transport layers mapping the
// core's errors onto their own status codes.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalError
}
