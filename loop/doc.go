// Package loop provides a minimal host scheduler: a run loop that executes
// tasks serially on a single goroutine, with one-shot timers.
//
// It is the default Scheduler (and TimeoutScheduler) of the parent
// trampoline package, giving the engine the cooperative, single-threaded
// execution model it requires. [Loop.Schedule] and [Loop.ScheduleAfter] are
// safe to call from any goroutine.
//
// Panics from tasks are recovered, reported to the handler configured via
// [WithPanicHandler], and logged (rate limited), and the loop continues.
//
// # Usage
//
//	l, err := loop.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = l.ScheduleAfter(100*time.Millisecond, func() {
//	    fmt.Println("Hello after 100ms")
//	    _ = l.Shutdown(context.Background())
//	})
//
//	if err := l.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package loop
