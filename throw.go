package trampoline

import (
	"errors"
	"fmt"
)

// ThrowLater runs fn(arg) outside the current call stack, so that a panic
// from fn reaches the host, instead of being swallowed by the caller.
//
// The task goes to the timeout scheduler (see [Engine.TimeoutScheduler]),
// with zero delay, falling back to the scheduler. Returns an error wrapping
// [ErrNoAsyncScheduler] if neither accepted it.
func (e *Engine) ThrowLater(fn func(arg any), arg any) error {
	if fn == nil {
		panic(&TypeError{Cause: ErrNilCallback})
	}
	task := func() { fn(arg) }

	var errs []error
	if ts := e.TimeoutScheduler(); ts != nil {
		err := ts.ScheduleAfter(0, task)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if err := e.scheduler.Schedule(task); err != nil {
		errs = append(errs, err)
		return fmt.Errorf("%w: %w", ErrNoAsyncScheduler, errors.Join(errs...))
	}
	return nil
}

// ThrowValueLater is the single value form of [Engine.ThrowLater]: the
// scheduled task panics with v.
func (e *Engine) ThrowValueLater(v any) error {
	return e.ThrowLater(throwValue, v)
}

func throwValue(v any) {
	panic(v)
}

// FatalError reports an unrecoverable error. In a privileged host (one that
// owns the process) it writes the error to the diagnostic stream, then exits
// with status 2. Otherwise the error is surfaced via
// [Engine.ThrowValueLater].
//
// The exit function is expected not to return. If it does (e.g. it was
// replaced in a test), FatalError returns nil.
func (e *Engine) FatalError(err error, privileged bool) error {
	e.logger.Crit().
		Err(err).
		Bool("privileged", privileged).
		Log("trampoline: fatal error")
	if privileged {
		_, _ = fmt.Fprintf(e.diagnostic, "Fatal %v\n", err)
		e.exit(2)
		return nil
	}
	return e.ThrowValueLater(err)
}
