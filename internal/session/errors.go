package session

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrValidation indicates a required input was missing; no request was sent.
	ErrValidation = errors.New("validation error")

	// ErrTransport indicates the backend could not be reached or the stream broke.
	ErrTransport = errors.New("transport error")

	// ErrCanceled is the cause recorded when a run is stopped by the user. It is
	// never surfaced as View.Err.
	ErrCanceled = errors.New("stopped by user")
)

// ValidationError names the missing input.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransportError wraps a failure to open or read the feed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
