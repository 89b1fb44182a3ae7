package http

import "fmt"

// ErrorType represents the category of error that occurred on an upstream
// HTTP call (language model or source-control provider).
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error represents an upstream HTTP error with additional context.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Upstream   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Upstream, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewAuthenticationError creates a new authentication error.
func NewAuthenticationError(upstream, message string) *Error {
	return &Error{
		Type:       ErrTypeAuthentication,
		Message:    message,
		StatusCode: 401,
		Retryable:  false,
		Upstream:   upstream,
	}
}

// NewRateLimitError creates a new rate limit error.
func NewRateLimitError(upstream, message string) *Error {
	return &Error{
		Type:       ErrTypeRateLimit,
		Message:    message,
		StatusCode: 429,
		Retryable:  true,
		Upstream:   upstream,
	}
}

// NewServiceUnavailableError creates a new service unavailable error.
func NewServiceUnavailableError(upstream, message string) *Error {
	return &Error{
		Type:       ErrTypeServiceUnavailable,
		Message:    message,
		StatusCode: 503,
		Retryable:  true,
		Upstream:   upstream,
	}
}

// NewInvalidRequestError creates a new invalid request error.
func NewInvalidRequestError(upstream, message string) *Error {
	return &Error{
		Type:       ErrTypeInvalidRequest,
		Message:    message,
		StatusCode: 400,
		Retryable:  false,
		Upstream:   upstream,
	}
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(upstream, message string) *Error {
	return &Error{
		Type:      ErrTypeTimeout,
		Message:   message,
		Retryable: true,
		Upstream:  upstream,
	}
}

// MapStatusError converts an HTTP status code and response body into a typed
// error. 5xx and 429 are retryable; everything else fails immediately.
func MapStatusError(upstream string, status int, body []byte) *Error {
	msg := string(body)
	switch {
	case status == 401 || status == 403:
		return &Error{Type: ErrTypeAuthentication, Message: msg, StatusCode: status, Retryable: false, Upstream: upstream}
	case status == 429:
		return &Error{Type: ErrTypeRateLimit, Message: msg, StatusCode: status, Retryable: true, Upstream: upstream}
	case status >= 500:
		return &Error{Type: ErrTypeServiceUnavailable, Message: msg, StatusCode: status, Retryable: true, Upstream: upstream}
	case status >= 400:
		return &Error{Type: ErrTypeInvalidRequest, Message: msg, StatusCode: status, Retryable: false, Upstream: upstream}
	default:
		return &Error{Type: ErrTypeUnknown, Message: msg, StatusCode: status, Retryable: false, Upstream: upstream}
	}
}
