package service

import (
	"errors"
	"fmt"
)

// ErrNotFound means the source had no data for the request. It is a normal
// outcome, distinct from a transport failure.
var ErrNotFound = errors.New("not found")

// TransportError wraps a failed call to an external service: a network error,
// a timeout, a non-success status or an undecodable body.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports unusable caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
