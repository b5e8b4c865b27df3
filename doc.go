// Package trampoline implements a deferred-task execution engine, for
// promise-style deferred computations: callbacks are queued, then run later,
// in batches, on a host scheduler, without unbounded call-stack growth.
//
// # Architecture
//
// An [Engine] owns two [Queue] instances:
//   - The normal queue, fed by [Engine.Invoke], [Engine.InvokeFirst] (at the
//     head) and [Engine.SettlePromises].
//   - The late queue, fed by [Engine.InvokeLater], which only drains once the
//     normal queue is empty, or the pass's budget has run out.
//
// Queuing work arms a single drain, via the engine's [Scheduler]. However
// many times work is queued before that drain starts, only one is armed. A
// drain runs at most [Engine.BatchSize] callbacks, and arms another drain if
// work remains, yielding to the host between passes.
//
// # Host Scheduler
//
// By default, drains are scheduled on [loop.Default], a process-wide run loop
// that executes tasks serially, on a single goroutine. Any [Scheduler] may be
// provided, via [WithScheduler], so long as it runs tasks asynchronously, one
// at a time.
//
// # Thread Safety
//
// The engine performs no locking. All of its methods, and all queued
// callbacks, must run on the scheduler's logical thread.
//
// # Debugging
//
// Hosts under interactive debugging may configure [WithInstrumented], then
// call [Engine.DisableTrampolineIfNecessary], to dispatch each callback
// directly via the scheduler, which gives clearer stack traces, at the cost
// of throughput.
//
// # Usage
//
//	host := loop.Default()
//	engine, err := trampoline.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = host.Schedule(func() {
//	    _ = engine.Invoke(func(receiver, arg any) {
//	        fmt.Println(arg)
//	    }, nil, "hello")
//	})
package trampoline
