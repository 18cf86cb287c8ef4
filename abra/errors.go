// Package abra is a client for the ABRA Gen business-object REST API.
// It translates query intents into parameterized GET requests and
// normalizes responses into a uniform result shape. Every call issues
// exactly one HTTP request; there is no caching and no retrying.
package abra

import (
	"fmt"
)

// The error taxonomy separates "caller sent bad input" (ValidationError,
// no network call made), "service unreachable" (TransportError) and
// "service rejected the request" (RemoteError, NotFoundError), so tool
// callers can report each distinctly.

// ValidationError reports invalid arguments, detected before any
// network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func (e *ValidationError) ErrorKind() string {
	return "validation"
}

// NewValidationError creates a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError reports a network-level failure: timeout, connection
// refused, DNS. No HTTP response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) ErrorKind() string {
	return "transport"
}

// RemoteError reports a non-2xx HTTP response, carrying the status and
// the response body.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: status %d: %s", e.StatusCode, e.Body)
}

func (e *RemoteError) ErrorKind() string {
	return "remote"
}

// NotFoundError is the 404 specialization of RemoteError.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.URL
}

func (e *NotFoundError) ErrorKind() string {
	return "not_found"
}
