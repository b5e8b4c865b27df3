// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package trampoline

import (
	"fmt"
	"io"
	"os"

	"github.com/joeycumines/go-trampoline/loop"
	"github.com/joeycumines/logiface"
)

// Engine queues callbacks and settlement requests, and drains them in
// batches, via its [Scheduler].
//
// Ordering:
//   - Entries in the same queue run in the order they were queued, except
//     InvokeFirst, which inserts at the head of the normal queue.
//   - Every pass drains the normal queue before the late queue.
//   - At most one drain is armed at a time. Work queued while a drain is
//     running arms a new drain.
//
// Thread Safety: Engine is NOT thread-safe. All methods must be called from
// the logical thread that its scheduler runs tasks on (for the default
// scheduler, the [loop.Default] goroutine), or otherwise be externally
// serialized.
type Engine struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	normal *Queue
	late   *Queue

	scheduler        Scheduler
	timeoutScheduler TimeoutScheduler

	logger     *logiface.Logger[logiface.Event]
	diagnostic io.Writer
	exit       func(code int)

	tick tickController

	batchSize int
	stats     Stats

	customScheduler   bool
	haveDrainedOnce   bool
	trampolineEnabled bool
	instrumented      bool
}

// New creates a new engine. Unless [WithScheduler] is provided, the engine
// schedules drains on [loop.Default].
func New(opts ...Option) (*Engine, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		normal:            NewQueue(normalQueueCapacity),
		late:              NewQueue(lateQueueCapacity),
		scheduler:         cfg.scheduler,
		timeoutScheduler:  cfg.timeoutScheduler,
		logger:            cfg.logger,
		diagnostic:        cfg.diagnostic,
		exit:              cfg.exit,
		batchSize:         cfg.batchSize,
		trampolineEnabled: cfg.trampolineEnabled,
		instrumented:      cfg.instrumented,
	}

	if e.scheduler != nil {
		e.customScheduler = true
	} else {
		e.scheduler = loop.Default()
	}
	if e.diagnostic == nil {
		e.diagnostic = os.Stderr
	}
	if e.exit == nil {
		e.exit = os.Exit
	}

	// the budget is read when the drain starts, so SetBatchSize applies to
	// the next pass
	e.tick.drain = func() {
		e.drain(e.batchSize)
	}

	return e, nil
}

// Invoke queues fn(receiver, arg) at the tail of the normal queue, and
// requests a drain.
//
// Panics with a [TypeError] if fn is nil. The returned error is non-nil only
// if the scheduler rejected the drain, in which case the entry stays queued.
func (e *Engine) Invoke(fn Callback, receiver, arg any) error {
	if fn == nil {
		panic(&TypeError{Cause: ErrNilCallback})
	}
	if e.directDispatch() {
		return e.dispatch(func() { fn(receiver, arg) })
	}
	e.normal.Push(fn, receiver, arg)
	return e.queueTick()
}

// InvokeLater queues fn(receiver, arg) at the tail of the late queue, which
// only drains after the normal queue, and requests a drain.
//
// Panics with a [TypeError] if fn is nil.
func (e *Engine) InvokeLater(fn Callback, receiver, arg any) error {
	if fn == nil {
		panic(&TypeError{Cause: ErrNilCallback})
	}
	if e.directDispatch() {
		return e.dispatchLater(func() { fn(receiver, arg) })
	}
	e.late.Push(fn, receiver, arg)
	return e.queueTick()
}

// InvokeFirst queues fn(receiver, arg) at the head of the normal queue, so
// it runs before anything else that is currently queued there, and requests
// a drain. Multiple calls before a drain run most recent first.
//
// Panics with a [TypeError] if fn is nil.
func (e *Engine) InvokeFirst(fn Callback, receiver, arg any) error {
	if fn == nil {
		panic(&TypeError{Cause: ErrNilCallback})
	}
	if e.directDispatch() {
		return e.dispatch(func() { fn(receiver, arg) })
	}
	e.normal.Unshift(fn, receiver, arg)
	return e.queueTick()
}

// SettlePromises queues a call to target.SettlePendingReactions at the tail
// of the normal queue, and requests a drain. Settlements do not count
// towards the batch size.
//
// Panics with a [TypeError] if target is nil.
func (e *Engine) SettlePromises(target Settler) error {
	if target == nil {
		panic(&TypeError{Cause: ErrNilSettler})
	}
	if e.directDispatch() {
		return e.dispatch(target.SettlePendingReactions)
	}
	e.normal.PushSettlement(target)
	return e.queueTick()
}

// HaveItemsQueued reports whether a drain is armed, or any drain has ever
// run. It is a coarse signal, see [Engine.Len] for the queue lengths.
func (e *Engine) HaveItemsQueued() bool {
	return e.tick.armed() || e.haveDrainedOnce
}

// TickState returns whether a drain is currently armed.
func (e *Engine) TickState() TickState {
	return e.tick.state
}

// Len returns the number of entries in the normal and late queues.
func (e *Engine) Len() (normal, late int) {
	return e.normal.Len(), e.late.Len()
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) directDispatch() bool {
	return !e.trampolineEnabled && e.instrumented
}

// dispatch hands task straight to the scheduler, bypassing the queues.
func (e *Engine) dispatch(task func()) error {
	e.stats.DirectDispatches++
	if err := e.scheduler.Schedule(task); err != nil {
		e.stats.ScheduleErrors++
		e.logger.Err().
			Err(err).
			Log("trampoline: scheduler rejected direct dispatch")
		return fmt.Errorf("%w: %w", ErrScheduleFailed, err)
	}
	return nil
}

// dispatchLater is dispatch, plus LateDispatchDelay, if a timeout scheduler
// is available.
func (e *Engine) dispatchLater(task func()) error {
	ts := e.TimeoutScheduler()
	if ts == nil {
		return e.dispatch(task)
	}
	return e.dispatch(func() {
		if err := ts.ScheduleAfter(LateDispatchDelay, task); err != nil {
			e.logger.Warning().
				Err(err).
				Log("trampoline: timeout scheduler rejected late dispatch, running now")
			task()
		}
	})
}

// queueTick arms a drain, if one is not already armed.
func (e *Engine) queueTick() error {
	if _, err := e.tick.requestDrain(e.scheduler); err != nil {
		e.stats.ScheduleErrors++
		e.logger.Err().
			Err(err).
			Int("normal", e.normal.Len()).
			Int("late", e.late.Len()).
			Log("trampoline: scheduler rejected drain")
		return fmt.Errorf("%w: %w", ErrScheduleFailed, err)
	}
	return nil
}

// drain is a single pass, running at most maxItems callbacks, from the
// normal queue then the late queue. The budget left over from the normal
// queue carries into the late queue.
//
// Panics from callbacks propagate. Entries that remain queued after a panic
// run on the next drain, armed by a subsequent enqueue.
func (e *Engine) drain(maxItems int) {
	e.tick.onDrainStart()
	e.stats.Drains++

	maxItems = e.drainQueue(e.normal, maxItems)
	e.haveDrainedOnce = true
	e.drainQueue(e.late, maxItems)

	if e.normal.Len() > 0 || e.late.Len() > 0 {
		// couldn't drain the queues this pass
		armed, err := e.tick.requestDrain(e.scheduler)
		switch {
		case err != nil:
			e.stats.ScheduleErrors++
			e.logger.Err().
				Err(err).
				Int("normal", e.normal.Len()).
				Int("late", e.late.Len()).
				Log("trampoline: scheduler rejected drain for remaining work")
		case armed:
			e.stats.Rearms++
			e.logger.Debug().
				Int("normal", e.normal.Len()).
				Int("late", e.late.Len()).
				Log("trampoline: batch exhausted, rearmed drain")
		}
	}
}

// drainQueue runs entries from q until it is empty, or budget callbacks have
// run, returning the remaining budget.
func (e *Engine) drainQueue(q *Queue, budget int) int {
	for budget > 0 {
		entry, ok := q.Shift()
		if !ok {
			break
		}
		if entry.Kind() == EntryCallback {
			budget--
			e.stats.Callbacks++
		} else {
			e.stats.Settlements++
		}
		entry.run()
	}
	return budget
}
