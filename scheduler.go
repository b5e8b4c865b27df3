package trampoline

import (
	"time"
)

// LateDispatchDelay is the extra delay applied to [Engine.InvokeLater], while
// trampolining is disabled for interactive debugging.
const LateDispatchDelay = 100 * time.Millisecond

// Scheduler runs tasks at the next opportunity, normally asynchronously.
//
// Implementations must run all tasks for a given [Engine] on the same
// logical thread. Returning an error indicates the task was not accepted.
//
// A synchronous scheduler, one that calls task from within Schedule, is
// permitted, but gives up trampolining: each drain runs on the stack of the
// operation that armed it, so work queued by a running callback drains in a
// nested pass, before that callback returns.
//
// [loop.Loop] is the default implementation.
type Scheduler interface {
	Schedule(task func()) error
}

// TimeoutScheduler is the delayed-execution fallback, used to surface errors
// outside the current call stack, see [Engine.ThrowLater].
type TimeoutScheduler interface {
	ScheduleAfter(delay time.Duration, task func()) error
}

// SchedulerFunc adapts a function to a [Scheduler].
type SchedulerFunc func(task func()) error

// Schedule implements [Scheduler].
func (f SchedulerFunc) Schedule(task func()) error {
	return f(task)
}

// TimeoutSchedulerFunc adapts a function to a [TimeoutScheduler].
type TimeoutSchedulerFunc func(delay time.Duration, task func()) error

// ScheduleAfter implements [TimeoutScheduler].
func (f TimeoutSchedulerFunc) ScheduleAfter(delay time.Duration, task func()) error {
	return f(delay, task)
}
