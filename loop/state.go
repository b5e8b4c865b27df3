package loop

import (
	"sync/atomic"
)

// State represents the current state of a Loop.
//
// State Machine:
//
//	StateAwake (0) → StateRunning (3)        [Run()]
//	StateRunning (3) → StateSleeping (2)     [idle, via CAS]
//	StateSleeping (2) → StateRunning (3)     [woken, via CAS]
//	StateRunning/StateSleeping → StateTerminating (4) [Shutdown(), ctx done]
//	StateAwake (0) → StateTerminated (1)     [Shutdown() before Run()]
//	StateTerminating (4) → StateTerminated (1) [queues drained]
//	StateTerminated (1) → (terminal)
type State uint64

const (
	// StateAwake indicates the loop has been created but not started.
	StateAwake State = 0
	// StateTerminated indicates the loop has stopped.
	StateTerminated State = 1
	// StateSleeping indicates the loop is blocked waiting for tasks or timers.
	StateSleeping State = 2
	// StateRunning indicates the loop is actively processing tasks.
	StateRunning State = 3
	// StateTerminating indicates shutdown has been requested, and the loop is
	// draining queued tasks.
	StateTerminating State = 4
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state machine.
//
// Use tryTransition (CAS) for temporary states (Running, Sleeping), and store
// only for irreversible states (Terminated).
type fastState struct { // betteralign:ignore
	_ [64]byte      // cache line padding //nolint:unused
	v atomic.Uint64 // State
	_ [56]byte      // pad to complete cache line //nolint:unused
}

func (s *fastState) load() State {
	return State(s.v.Load())
}

func (s *fastState) store(state State) {
	s.v.Store(uint64(state))
}

func (s *fastState) tryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// canAcceptWork reports whether tasks may still be submitted. Terminating
// loops accept work, since they drain their queues before stopping.
func (s *fastState) canAcceptWork() bool {
	return s.load() != StateTerminated
}
