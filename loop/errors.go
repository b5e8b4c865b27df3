package loop

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrLoopAlreadyRunning is returned when Run() is called on a loop that is already running.
	ErrLoopAlreadyRunning = errors.New("loop: loop is already running")

	// ErrLoopTerminated is returned when operations are attempted on a terminated loop.
	ErrLoopTerminated = errors.New("loop: loop has been terminated")

	// ErrReentrantRun is returned when Run() is called from within the loop itself.
	ErrReentrantRun = errors.New("loop: cannot call Run() from within the loop")

	// ErrNilTask is returned when a nil task is scheduled.
	ErrNilTask = errors.New("loop: task must not be nil")
)

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("loop: task panicked: %v", e.Value)
}

// Unwrap returns the panic value, if it is an error, for use with
// [errors.Is] and [errors.As].
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
