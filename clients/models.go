package clients

import (
	"errors"
	"fmt"
)

// Message represents a single message returned by a list-after query.
// The reconciler only cares whether any exist; the rest is kept for logging.
type Message struct {
	ID       string
	AuthorID string
	Content  string
}

// TransientError represents a transport-level failure (timeout, connection
// refused, DNS). The operation may succeed if retried on a later cycle.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient transport failure: %v", e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// APIError represents a response the platform returned with a status outside
// the operation's success set. Body carries the raw response payload for logs.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var transientErr *TransientError
	return errors.As(err, &transientErr)
}

// AsAPIError extracts an APIError from err, if it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
