package beacon

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatcher.
var (
	// ErrNilObject is returned when an operation is attempted without an object.
	ErrNilObject = errors.New("object is required")

	// ErrEmptyEvent is returned when an operation is attempted without an event name.
	ErrEmptyEvent = errors.New("event name is required")

	// ErrMethodNotFound is returned when a named method cannot be resolved
	// on the listener's target at invocation time.
	ErrMethodNotFound = errors.New("method not found on target")

	// ErrNotCallable is returned when a listener's method is not a callable value.
	ErrNotCallable = errors.New("method is not callable")

	// ErrSignatureMismatch is returned when the firing arguments cannot be
	// passed to the listener's method.
	ErrSignatureMismatch = errors.New("argument signature mismatch")
)

// InvocationError reports a listener whose method could not be invoked.
// Errors returned by a listener itself are never wrapped; InvocationError
// covers failures of the invocation protocol before the listener runs.
type InvocationError struct {
	// Event is the event being fired.
	Event string

	// Method is the display form of the listener's method.
	Method string

	// Err is the underlying protocol error: ErrMethodNotFound,
	// ErrNotCallable, or ErrSignatureMismatch.
	Err error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("invoke %q listener (%s): %v", e.Event, e.Method, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvocationError) Unwrap() error {
	return e.Err
}
