// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package loop

import (
	"container/heap"
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// Loop is a serial task executor: every task runs on the goroutine that
// called [Loop.Run], one at a time, to completion.
//
// Each pass runs expired timers, then up to the task budget of queued
// tasks, in the order they were scheduled. The loop sleeps when there is
// nothing to do, and is woken by [Loop.Schedule], or by the next timer.
//
// Loop implements the Scheduler and TimeoutScheduler interfaces of the
// parent package.
type Loop struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	logger  *logiface.Logger[logiface.Event]
	limiter *catrate.Limiter
	onPanic func(PanicError)

	// State machine (cache-line padded internally)
	state fastState

	// mu guards tasks, and the transition to StateTerminated
	mu    sync.Mutex
	tasks ingress

	// Loop goroutine only
	timers   timerHeap
	timerSeq uint64
	batch    []func()

	// wake has a single slot, so concurrent wake-ups coalesce
	wake chan struct{}

	// done is closed when Run returns
	done chan struct{}

	stopOnce sync.Once

	goroutineID atomic.Uint64

	id uint64
}

var loopIDCounter atomic.Uint64

// New creates a new loop. It does nothing until [Loop.Run] is called.
func New(opts ...Option) (*Loop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	limiter, err := newPanicLimiter(cfg.panicLogRates)
	if err != nil {
		return nil, err
	}

	return &Loop{
		id:      loopIDCounter.Add(1),
		logger:  cfg.logger,
		limiter: limiter,
		onPanic: cfg.onPanic,
		batch:   make([]func(), cfg.taskBudget),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}, nil
}

// newPanicLimiter converts catrate's panic on invalid rates to an error.
func newPanicLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	if len(rates) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("loop: invalid panic log rates: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

// ID returns the loop's process-unique identifier.
func (l *Loop) ID() uint64 {
	return l.id
}

// State returns the current state of the loop.
func (l *Loop) State() State {
	return l.state.load()
}

// Len returns the number of queued tasks, not including timers.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tasks.len()
}

// Run runs the loop, on the calling goroutine, until it is stopped, via
// [Loop.Shutdown], [Loop.Close], or ctx cancellation. Cancellation drains
// queued tasks, like Shutdown, then returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	if l.IsLoopGoroutine() {
		return ErrReentrantRun
	}

	if !l.state.tryTransition(StateAwake, StateRunning) {
		if l.state.load() == StateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}

	defer close(l.done)

	return l.run(ctx)
}

func (l *Loop) run(ctx context.Context) error {
	l.goroutineID.Store(getGoroutineID())
	defer l.goroutineID.Store(0)

	for {
		if ctx.Err() != nil {
			l.requestTermination()
			if l.state.load() == StateTerminating {
				l.shutdown()
			}
			return ctx.Err()
		}

		switch l.state.load() {
		case StateTerminating:
			l.shutdown()
			return nil
		case StateTerminated:
			// closed
			return nil
		}

		l.runTimers(time.Now())

		if l.processTasks() {
			// budget exhausted, more tasks remain
			continue
		}

		l.sleep(ctx)
	}
}

// processTasks runs a batch of queued tasks, reporting whether tasks remain.
func (l *Loop) processTasks() bool {
	l.mu.Lock()
	n := l.tasks.popBatch(l.batch)
	remaining := l.tasks.len()
	l.mu.Unlock()

	if !l.runBatch(n) {
		return false
	}

	return remaining > 0
}

// runBatch runs the first n tasks of l.batch, stopping early if a task
// closes the loop. Returns false if it stopped early.
func (l *Loop) runBatch(n int) bool {
	for i := 0; i < n; i++ {
		if l.state.load() == StateTerminated {
			clear(l.batch[i:n])
			return false
		}
		l.safeExecute(l.batch[i])
		l.batch[i] = nil // clear for GC
	}
	return true
}

// runTimers executes all timers that expired at or before now.
func (l *Loop) runTimers(now time.Time) {
	for len(l.timers) > 0 {
		if l.timers[0].when.After(now) {
			break
		}
		t := heap.Pop(&l.timers).(timer)
		l.safeExecute(t.task)
	}
}

// sleep blocks until woken, the next timer is due, or ctx is done.
func (l *Loop) sleep(ctx context.Context) {
	if !l.state.tryTransition(StateRunning, StateSleeping) {
		// terminating
		return
	}
	defer l.state.tryTransition(StateSleeping, StateRunning)

	// a task scheduled between processTasks and the transition above
	// signalled wake, but check anyway, it's cheap
	if l.Len() > 0 {
		return
	}

	var timerC <-chan time.Time
	if len(l.timers) > 0 {
		d := time.Until(l.timers[0].when)
		if d <= 0 {
			return
		}
		t := time.NewTimer(d)
		defer t.Stop()
		timerC = t.C
	}

	select {
	case <-l.wake:
	case <-timerC:
	case <-ctx.Done():
	}
}

// wakeUp signals the loop, if it isn't already signalled.
func (l *Loop) wakeUp() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Schedule queues task to run on the loop goroutine, after every task
// already queued. Safe to call from any goroutine, including the loop's.
//
// Tasks may be scheduled before Run, and while the loop is terminating.
// Returns ErrLoopTerminated once the loop has stopped.
func (l *Loop) Schedule(task func()) error {
	if task == nil {
		return ErrNilTask
	}

	l.mu.Lock()
	if !l.state.canAcceptWork() {
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.tasks.push(task)
	l.mu.Unlock()

	l.wakeUp()
	return nil
}

// ScheduleAfter runs task on the loop goroutine, once delay has elapsed
// (measured from the call). Timers with equal deadlines run in the order
// they were scheduled. Safe to call from any goroutine.
//
// Timers still pending when the loop stops are discarded.
func (l *Loop) ScheduleAfter(delay time.Duration, task func()) error {
	if task == nil {
		return ErrNilTask
	}
	when := time.Now().Add(delay)
	return l.Schedule(func() {
		l.timerSeq++
		heap.Push(&l.timers, timer{when: when, task: task, seq: l.timerSeq})
	})
}

// Shutdown gracefully stops the loop, running all queued tasks first.
// It blocks until the loop has stopped, or ctx is done.
//
// Called from the loop goroutine, Shutdown only requests termination, the
// loop stops once the current task returns.
func (l *Loop) Shutdown(ctx context.Context) error {
	var result error
	l.stopOnce.Do(func() {
		result = l.shutdownImpl(ctx)
	})
	return result
}

func (l *Loop) shutdownImpl(ctx context.Context) error {
	if l.state.tryTransition(StateAwake, StateTerminated) {
		// never ran, nothing to drain
		l.mu.Lock()
		l.tasks.clear()
		l.mu.Unlock()
		return nil
	}

	if !l.requestTermination() {
		return ErrLoopTerminated
	}

	if l.IsLoopGoroutine() {
		return nil
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestTermination moves a running or sleeping loop to StateTerminating,
// returning false if the loop was already stopping or stopped.
func (l *Loop) requestTermination() bool {
	for {
		current := l.state.load()
		if current == StateTerminating || current == StateTerminated {
			return false
		}
		if l.state.tryTransition(current, StateTerminating) {
			l.wakeUp()
			return true
		}
	}
}

// shutdown drains all queued tasks, then marks the loop terminated.
func (l *Loop) shutdown() {
	for {
		l.mu.Lock()
		n := l.tasks.popBatch(l.batch)
		if n == 0 {
			l.state.store(StateTerminated)
			l.mu.Unlock()
			break
		}
		l.mu.Unlock()

		if !l.runBatch(n) {
			// closed by a task
			break
		}
	}

	if len(l.timers) > 0 {
		l.logger.Debug().
			Uint64("loop", l.id).
			Int("timers", len(l.timers)).
			Log("loop: discarding pending timers")
		clear(l.timers)
		l.timers = l.timers[:0]
	}
}

// Close immediately stops the loop, discarding queued tasks and timers.
// Called from a task, no further tasks run once it returns. Unlike Shutdown,
// it does not wait for the loop to stop.
func (l *Loop) Close() error {
	for {
		current := l.state.load()
		if current == StateTerminated {
			return ErrLoopTerminated
		}
		l.mu.Lock()
		ok := l.state.tryTransition(current, StateTerminated)
		if ok {
			l.tasks.clear()
		}
		l.mu.Unlock()
		if ok {
			l.wakeUp()
			return nil
		}
	}
}

// Done returns a channel that is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// safeExecute executes a task with panic recovery.
func (l *Loop) safeExecute(task func()) {
	if task == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.handlePanic(r)
		}
	}()

	task()
}

func (l *Loop) handlePanic(r any) {
	err := PanicError{Value: r}

	if l.onPanic != nil {
		l.onPanic(err)
	}

	if _, ok := l.limiter.Allow(err.Error()); ok {
		l.logger.Err().
			Err(err).
			Uint64("loop", l.id).
			Log("loop: task panicked")
	}
}

// IsLoopGoroutine reports whether the caller is running on the loop
// goroutine, i.e. within a task.
func (l *Loop) IsLoopGoroutine() bool {
	id := l.goroutineID.Load()
	if id == 0 {
		return false
	}
	return getGoroutineID() == id
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
