package trampoline

// TickState represents whether a drain is pending for the current tick.
//
// State Machine:
//
//	TickIdle (0) → TickArmed (1)     [requestDrain()]
//	TickArmed (1) → TickIdle (0)     [onDrainStart(), or scheduler rejection]
//
// The armed flag is cleared when a drain pass begins, not when it ends, so
// work enqueued by a running pass arms a separate drain, instead of being
// absorbed into the pass's already fixed budget.
type TickState uint8

const (
	// TickIdle indicates no drain is scheduled.
	TickIdle TickState = iota
	// TickArmed indicates a drain has been scheduled, but has not started.
	TickArmed
)

// String returns a human-readable representation of the state.
func (s TickState) String() string {
	switch s {
	case TickIdle:
		return "Idle"
	case TickArmed:
		return "Armed"
	default:
		return "Unknown"
	}
}

// tickController coalesces drain requests, such that at most one drain is
// armed at any time.
//
// Not thread-safe, see [Engine].
type tickController struct {
	// drain is handed to the scheduler, allocated once
	drain func()
	state TickState
}

// requestDrain arms a drain via the given scheduler, unless one is already
// armed. Returns the scheduler's error, in which case the controller is left
// idle, so a later request may retry.
func (t *tickController) requestDrain(scheduler Scheduler) (armed bool, err error) {
	if t.state == TickArmed {
		return false, nil
	}
	t.state = TickArmed
	if err := scheduler.Schedule(t.drain); err != nil {
		t.state = TickIdle
		return false, err
	}
	return true, nil
}

// onDrainStart must be called at the very start of each drain pass.
func (t *tickController) onDrainStart() {
	t.state = TickIdle
}

// armed reports whether a drain is pending.
func (t *tickController) armed() bool {
	return t.state == TickArmed
}
