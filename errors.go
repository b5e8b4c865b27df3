package trampoline

import (
	"errors"
)

// Standard errors.
var (
	// ErrNilCallback is the cause of the panic raised when a nil callback is
	// passed to Invoke, InvokeLater or InvokeFirst.
	ErrNilCallback = errors.New("trampoline: callback must not be nil")

	// ErrNilSettler is the cause of the panic raised when a nil target is
	// passed to SettlePromises.
	ErrNilSettler = errors.New("trampoline: settler must not be nil")

	// ErrNilScheduler is returned when a nil scheduler is configured.
	ErrNilScheduler = errors.New("trampoline: scheduler must not be nil")

	// ErrInvalidBatchSize is returned when a non-positive batch size is configured.
	ErrInvalidBatchSize = errors.New("trampoline: batch size must be positive")

	// ErrNoAsyncScheduler is returned by ThrowLater when neither the timeout
	// scheduler nor the scheduler accepted the task.
	ErrNoAsyncScheduler = errors.New("trampoline: no async scheduler available")

	// ErrScheduleFailed wraps a scheduler's rejection of a drain.
	// The work that triggered the drain remains queued.
	ErrScheduleFailed = errors.New("trampoline: failed to schedule drain")
)

// TypeError indicates a value was not of the expected type, e.g. nil.
type TypeError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	if e.Message == "" {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "type error"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TypeError) Unwrap() error {
	return e.Cause
}

// RangeError indicates a value was not within the expected range.
type RangeError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	if e.Message == "" {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "range error"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *RangeError) Unwrap() error {
	return e.Cause
}
