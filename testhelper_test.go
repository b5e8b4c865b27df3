package trampoline

import (
	"testing"
	"time"
)

// manualScheduler captures scheduled tasks, so tests decide exactly when
// each drain runs.
type manualScheduler struct {
	tasks []func()
	err   error
	calls int
}

func (s *manualScheduler) Schedule(task func()) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// runNext runs the oldest pending task, returning false if there was none.
// The task is removed before it runs, so it is gone even if it panics.
func (s *manualScheduler) runNext() bool {
	if len(s.tasks) == 0 {
		return false
	}
	task := s.tasks[0]
	s.tasks = s.tasks[1:]
	task()
	return true
}

// runAll runs tasks until none remain, failing the test after limit tasks.
func (s *manualScheduler) runAll(t *testing.T, limit int) int {
	t.Helper()
	n := 0
	for s.runNext() {
		n++
		if n > limit {
			t.Fatalf("more than %d scheduled tasks, likely a livelock", limit)
		}
	}
	return n
}

func (s *manualScheduler) pending() int {
	return len(s.tasks)
}

type timeoutCall struct {
	delay time.Duration
	task  func()
}

// manualTimeoutScheduler captures delayed tasks.
type manualTimeoutScheduler struct {
	calls []timeoutCall
	err   error
}

func (s *manualTimeoutScheduler) ScheduleAfter(delay time.Duration, task func()) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, timeoutCall{delay: delay, task: task})
	return nil
}

// schedulerWithTimeout is a scheduler that also implements TimeoutScheduler.
type schedulerWithTimeout struct {
	*manualScheduler
	*manualTimeoutScheduler
}

// recorder records the order callbacks ran in.
type recorder struct {
	order []string
}

func (r *recorder) cb(label string) Callback {
	return func(receiver, arg any) {
		r.order = append(r.order, label)
	}
}

// countingSettler counts calls to SettlePendingReactions.
type countingSettler struct {
	onSettle func()
	calls    int
}

func (s *countingSettler) SettlePendingReactions() {
	s.calls++
	if s.onSettle != nil {
		s.onSettle()
	}
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *manualScheduler) {
	t.Helper()
	s := &manualScheduler{}
	e, err := New(append([]Option{WithScheduler(s)}, opts...)...)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return e, s
}
