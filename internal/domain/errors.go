package domain

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed indicates the provider rejected the supplied
// credentials during clone. Wrapped inside a CloneError.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ValidationError reports a malformed inbound message. Fatal for the message;
// processing stops before any cloning.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid analysis request: " + e.Reason
}

// CloneError reports a failure to obtain repository content.
type CloneError struct {
	Provider ProviderKind
	Err      error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("clone failed for %s repository: %v", e.Provider, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }

// PostingError reports that a provider rejected the comment or issue
// creation. The status code and response body are carried verbatim for
// observability.
type PostingError struct {
	Provider   ProviderKind
	StatusCode int
	Body       string
}

func (e *PostingError) Error() string {
	return fmt.Sprintf("%s comment rejected: status %d - %s", e.Provider, e.StatusCode, e.Body)
}
