package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse is wrapped by TransportError when the backend
// answered with a body that is not a well-formed envelope.
var ErrMalformedResponse = errors.New("malformed response")

// ErrRatingDisabled is returned by Rate when no rating endpoint is set.
var ErrRatingDisabled = errors.New("rating endpoint not configured")

// ErrNotPending matches a submission the backend refused with 409 Conflict:
// it no longer holds the exercise, so no retry can succeed.
var ErrNotPending = errors.New("exercise is not pending")

// TransportError indicates the request did not complete with a usable
// response: network failure, timeout, or an unreadable body.
type TransportError struct {
	Op     string
	Status int // HTTP status, 0 if no response arrived
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: transport failure (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError indicates a well-formed response that reported failure,
// either with success:false or with a non-success status and an error
// message.
type BackendError struct {
	Op      string
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend reported failure", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Is reports whether e matches ErrNotPending.
func (e *BackendError) Is(target error) bool {
	return target == ErrNotPending && e.Op == OpSubmit && e.Status == http.StatusConflict
}
