// Package apperr provides the error taxonomy of the contact intake path.
//
// Callers switch on Kind rather than on message text. Client-facing kinds carry
// a message that is safe to display; server-side kinds are collapsed to a
// generic message by PublicMessage.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for status mapping and logging.
type Kind string

const (
	KindUnknown            Kind = "UNKNOWN"
	KindClientInput        Kind = "CLIENT_INPUT"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindMethodNotAllowed   Kind = "METHOD_NOT_ALLOWED"
	KindConfiguration      Kind = "CONFIGURATION"
	KindBackendUnavailable Kind = "BACKEND_UNAVAILABLE"
	KindPersistence        Kind = "PERSISTENCE"
)

// HTTPStatus maps a kind to the response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindClientInput:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether errors of this kind may show their message to clients.
func (k Kind) Public() bool {
	return k.HTTPStatus() < http.StatusInternalServerError
}

// Cause narrows a BackendUnavailable error for logging.
type Cause string

const (
	CauseNone              Cause = ""
	CauseAuthentication    Cause = "authentication"
	CauseTimeout           Cause = "timeout"
	CauseHostNotFound      Cause = "host_not_found"
	CauseConnectionRefused Cause = "connection_refused"
	CauseUnknown           Cause = "unknown"
)

// User-facing messages with a fixed wording.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgRateLimited      = "Rate limit exceeded. Please wait before submitting another message."
	MsgInternal         = "An error occurred while processing your request. Please try again later."
)

// Error is the structured error type used across the intake path.
type Error struct {
	Kind  Kind
	Cause Cause
	// Field names the offending input field for ClientInput errors.
	Field string
	// Message is safe to show for public kinds and internal otherwise.
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Invalid creates a ClientInput error for a single field.
func Invalid(field, message string) *Error {
	return &Error{Kind: KindClientInput, Field: field, Message: message}
}

// Backend creates a BackendUnavailable error with a classified cause.
func Backend(cause Cause, message string, err error) *Error {
	return &Error{Kind: KindBackendUnavailable, Cause: cause, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CauseOf returns the backend cause of the first *Error in err's chain.
func CauseOf(err error) Cause {
	var e *Error
	if errors.As(err, &e) {
		return e.Cause
	}
	return CauseNone
}

// PublicMessage returns the text a client may see for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind.Public() {
		return e.Message
	}
	return MsgInternal
}

// LogDetail returns text for err that is safe to write to server logs.
// BackendUnavailable errors keep only their own message because driver
// errors can echo connection settings.
func LogDetail(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindBackendUnavailable {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
