package trampoline

// SetScheduler replaces the Scheduler Port, returning the previous one, and
// marks the engine as using a custom scheduler. A drain that is already
// armed stays with the scheduler it was handed to.
func (e *Engine) SetScheduler(scheduler Scheduler) (Scheduler, error) {
	if scheduler == nil {
		return nil, &TypeError{Cause: ErrNilScheduler}
	}
	prev := e.scheduler
	e.scheduler = scheduler
	e.customScheduler = true
	return prev, nil
}

// HasCustomScheduler reports whether the scheduler was provided via
// [WithScheduler] or [Engine.SetScheduler].
func (e *Engine) HasCustomScheduler() bool {
	return e.customScheduler
}

// SetBatchSize sets the maximum number of callbacks run per drain pass,
// effective from the next pass. Returns a [RangeError] if n is not positive.
func (e *Engine) SetBatchSize(n int) error {
	if n <= 0 {
		return &RangeError{Cause: ErrInvalidBatchSize}
	}
	e.batchSize = n
	return nil
}

// BatchSize returns the maximum number of callbacks run per drain pass.
func (e *Engine) BatchSize() int {
	return e.batchSize
}

// SetTimeoutScheduler overrides the delayed-execution fallback, returning
// the previous override (which may be nil). Passing nil removes the override.
func (e *Engine) SetTimeoutScheduler(timeoutScheduler TimeoutScheduler) TimeoutScheduler {
	prev := e.timeoutScheduler
	e.timeoutScheduler = timeoutScheduler
	return prev
}

// TimeoutScheduler returns the effective delayed-execution fallback: the
// override, if set, otherwise the scheduler, if it implements
// [TimeoutScheduler] (as [loop.Loop] does). Returns nil if neither applies.
func (e *Engine) TimeoutScheduler() TimeoutScheduler {
	if e.timeoutScheduler != nil {
		return e.timeoutScheduler
	}
	if ts, ok := e.scheduler.(TimeoutScheduler); ok {
		return ts
	}
	return nil
}

// EnableTrampoline restores batching through the queues.
func (e *Engine) EnableTrampoline() {
	if !e.trampolineEnabled {
		e.logger.Notice().Log("trampoline: trampoline enabled")
	}
	e.trampolineEnabled = true
}

// DisableTrampolineIfNecessary switches to direct dispatch, if the host was
// configured as instrumented for debugging ([WithInstrumented]). Work that is
// already queued still drains normally.
func (e *Engine) DisableTrampolineIfNecessary() {
	if !e.instrumented {
		return
	}
	if e.trampolineEnabled {
		e.logger.Notice().Log("trampoline: trampoline disabled for debugging, dispatching directly")
	}
	e.trampolineEnabled = false
}

// TrampolineEnabled reports whether work is batched through the queues.
func (e *Engine) TrampolineEnabled() bool {
	return e.trampolineEnabled
}
