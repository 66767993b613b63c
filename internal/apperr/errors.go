package apperr

// errors.go defines the error kinds used at the HTTP edge

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a structured error carrying a kind, a client-facing message
// and an optional cause.
type Error struct {
	// kind selects the HTTP status code
	kind Kind

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil && e.wrapped.Error() != e.message {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *Error) Kind() Kind      { return e.kind }
func (e *Error) Message() string { return e.message }
func (e *Error) Unwrap() error   { return e.wrapped }

// Kind classifies errors returned to clients.
type Kind int

const (
	KindInternal Kind = iota

	// KindValidation is used for malformed request bodies and parameters
	KindValidation

	// KindCORS is used when the request origin is not allowed by the origin policy
	// - this is only used in the middleware
	KindCORS

	// KindRateLimit is used when a client exceeds the request window
	// - this is only used in the middleware
	KindRateLimit

	// KindRequestTooLarge is used when the request body exceeds the configured ceiling
	// - this is only used in the middleware
	KindRequestTooLarge

	// KindUnsupportedMediaType is used when a request body has an unexpected content type
	KindUnsupportedMediaType

	KindNotFound

	// KindUnavailable is used when a route group has no backing service
	KindUnavailable

	// KindBadGateway is used when an upstream service fails
	KindBadGateway
)

var kindNames = map[Kind]string{
	KindInternal:             "internal",
	KindValidation:           "validation",
	KindCORS:                 "cors",
	KindRateLimit:            "rate_limit",
	KindRequestTooLarge:      "request_too_large",
	KindUnsupportedMediaType: "unsupported_media_type",
	KindNotFound:             "not_found",
	KindUnavailable:          "unavailable",
	KindBadGateway:           "bad_gateway",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// StatusCode returns the HTTP status code used for errors of this kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindCORS:
		return http.StatusForbidden
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{kind: kind, message: msg}
}

// Wrap wraps an existing error with the given kind and client-facing message.
func Wrap(err error, kind Kind, msg string) error {
	return &Error{kind: kind, message: msg, wrapped: err}
}

// NewValidationError creates an error for malformed requests.
func NewValidationError(msg string) error {
	return &Error{kind: KindValidation, message: msg}
}

// WrapValidationError wraps an existing error as a malformed request error.
func WrapValidationError(err error, msg string) error {
	return &Error{kind: KindValidation, message: msg, wrapped: err}
}

// NewCORSError creates an origin policy violation.
func NewCORSError(msg string) error {
	return &Error{kind: KindCORS, message: msg}
}

// NewRateLimitError creates a rate limit exceeded error.
// Use this when the client has exceeded the request window.
func NewRateLimitError(msg string) error {
	return &Error{kind: KindRateLimit, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
// Use this when the request body exceeds the maximum allowed size.
func NewRequestTooLargeError(msg string) error {
	return &Error{kind: KindRequestTooLarge, message: msg}
}

// NewUnsupportedMediaTypeError is returned when the request content type is not accepted.
func NewUnsupportedMediaTypeError(msg string) error {
	return &Error{kind: KindUnsupportedMediaType, message: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{kind: KindNotFound, message: msg}
}

func NewUnavailableError(msg string) error {
	return &Error{kind: KindUnavailable, message: msg}
}

// WrapBadGatewayError wraps a failure returned by an upstream service.
func WrapBadGatewayError(err error, msg string) error {
	return &Error{kind: KindBadGateway, message: msg, wrapped: err}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &Error{kind: KindInternal, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &Error{kind: KindInternal, message: msg, wrapped: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindInternal
}

// CauseChain returns the messages of err and every error it wraps, outermost first.
func CauseChain(err error) []string {
	var chain []string
	for err != nil {
		if appErr, ok := err.(*Error); ok {
			chain = append(chain, appErr.message)
		} else {
			chain = append(chain, err.Error())
		}
		err = errors.Unwrap(err)
	}
	return chain
}
