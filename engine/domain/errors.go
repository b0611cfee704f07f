package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure taxonomy.
var (
	ErrEmptyQuery        = errors.New("empty query")
	ErrQueryTooLong      = errors.New("query too long")
	ErrUnknownCapability = errors.New("unknown capability")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrDegenerateVector  = errors.New("zero-magnitude embedding vector")
	ErrCurrencyNotFound  = errors.New("currency not present in rate table")
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrMalformedCatalog  = errors.New("malformed catalog source")
	ErrMissingArgument   = errors.New("missing function argument")
	ErrNegativeTopK      = errors.New("negative top-k")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// UpstreamError marks a failure of an external capability (reasoning,
// embedding, or rate service). The Service tag identifies the collaborator;
// the wrapped error carries the diagnostic detail for operator logs and is
// never rendered to callers.
type UpstreamError struct {
	Service string
	Wrapped error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %s", e.Service, e.Wrapped)
}

func (e *UpstreamError) Unwrap() error { return e.Wrapped }

// NewUpstreamError creates an UpstreamError.
func NewUpstreamError(service string, wrapped error) *UpstreamError {
	return &UpstreamError{Service: service, Wrapped: wrapped}
}

// CallerFault reports whether err is the caller's fault (validation failure
// or unknown capability) as opposed to an upstream fault. Caller faults are
// never retried; upstream faults may be.
func CallerFault(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	return errors.Is(err, ErrUnknownCapability) ||
		errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrQueryTooLong) ||
		errors.Is(err, ErrInvalidCurrency)
}

// ErrorKind returns a short label for the failure category of err, used for
// internal logs and metrics labels.
func ErrorKind(err error) string {
	var ve *ValidationError
	var ue *UpstreamError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, ErrUnknownCapability):
		return "unknown_capability"
	case errors.Is(err, ErrCurrencyNotFound):
		return "not_found"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrDegenerateVector):
		return "degenerate_vector"
	case errors.As(err, &ue):
		return "upstream"
	default:
		return "internal"
	}
}
