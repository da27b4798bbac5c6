// Package graphragerr defines the tagged error type every component
// surfaces so callers can dispatch recovery by kind (errors.As) instead of
// matching on error strings. This generalizes the teacher's plain
// fmt.Errorf("...: %w", err) wrapping idiom (seen throughout
// db/repository/*.go) by attaching a typed Kind to the wrapped error.
package graphragerr

import "fmt"

// Kind classifies why an operation failed, per the error-handling design.
type Kind string

const (
	KindQueryGenerationFailed    Kind = "QueryGenerationFailed"
	KindQueryExecutionFailed     Kind = "QueryExecutionFailed"
	KindValidationFailed         Kind = "ValidationFailed"
	KindConfidenceBelowThreshold Kind = "ConfidenceBelowThreshold"
	KindBackendUnavailable       Kind = "BackendUnavailable"
	KindSchemaMismatch           Kind = "SchemaMismatch"
	KindConfigurationError       Kind = "ConfigurationError"
	KindConcurrencyLimitExceeded Kind = "ConcurrencyLimitExceeded"
)

// Error is the tagged error every component returns. It wraps an underlying
// cause (if any) the way the teacher's fmt.Errorf("%w", ...) chains do, but
// keeps the kind queryable via errors.As instead of string-matching.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Kind reports the error's classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether operations of this kind are eligible for the
// backoff-retry path per the error-handling design's recovery rules.
func (e *Error) Retryable() bool {
	return e.kind == KindBackendUnavailable
}
