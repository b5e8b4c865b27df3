package trampoline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joeycumines/go-trampoline"
	"github.com/joeycumines/go-trampoline/loop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startLoop runs a new loop in the background, shutting it down on cleanup.
func startLoop(t *testing.T, opts ...loop.Option) *loop.Loop {
	t.Helper()
	l, err := loop.New(opts...)
	require.NoError(t, err)
	go func() { _ = l.Run(context.Background()) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = l.Shutdown(ctx)
	})
	return l
}

func TestEngine_Loop_BatchesYieldToHost(t *testing.T) {
	l := startLoop(t)
	e, err := trampoline.New(trampoline.WithScheduler(l), trampoline.WithBatchSize(2))
	require.NoError(t, err)

	done := make(chan []string, 1)
	var order []string
	record := func(receiver, arg any) {
		order = append(order, arg.(string))
	}

	require.NoError(t, l.Schedule(func() {
		for _, v := range []string{"A", "B", "C", "D"} {
			_ = e.Invoke(record, nil, v)
		}
		// queued on the host behind the first drain, so it runs between the
		// first and second passes
		_ = l.Schedule(func() {
			order = append(order, "host")
		})
		_ = e.InvokeLater(func(receiver, arg any) {
			done <- order
		}, nil, nil)
	}))

	select {
	case got := <-done:
		assert.Equal(t, []string{"A", "B", "host", "C", "D"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestEngine_Loop_PanicRecoveredByHost(t *testing.T) {
	panics := make(chan loop.PanicError, 1)
	l := startLoop(t, loop.WithPanicHandler(func(p loop.PanicError) {
		panics <- p
	}))
	e, err := trampoline.New(trampoline.WithScheduler(l))
	require.NoError(t, err)

	boom := errors.New("boom")
	done := make(chan struct{})

	require.NoError(t, l.Schedule(func() {
		_ = e.Invoke(func(receiver, arg any) { panic(boom) }, nil, nil)
		_ = e.Invoke(func(receiver, arg any) { close(done) }, nil, nil)
	}))

	select {
	case p := <-panics:
		assert.ErrorIs(t, p, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for panic")
	}

	// the second callback waits for the next enqueue
	select {
	case <-done:
		t.Fatal("remaining entry ran without a new drain")
	case <-time.After(10 * time.Millisecond):
	}

	require.NoError(t, l.Schedule(func() {
		_ = e.Invoke(func(receiver, arg any) {}, nil, nil)
	}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestEngine_Loop_ThrowValueLater(t *testing.T) {
	panics := make(chan loop.PanicError, 1)
	l := startLoop(t, loop.WithPanicHandler(func(p loop.PanicError) {
		panics <- p
	}))
	e, err := trampoline.New(trampoline.WithScheduler(l))
	require.NoError(t, err)

	// the loop doubles as the timeout scheduler
	require.Same(t, l, e.TimeoutScheduler())

	boom := errors.New("boom")
	errs := make(chan error, 1)
	require.NoError(t, l.Schedule(func() {
		errs <- e.ThrowValueLater(boom)
	}))
	require.NoError(t, <-errs)

	select {
	case p := <-panics:
		assert.ErrorIs(t, p, boom)
		assert.Equal(t, boom, p.Value)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestEngine_Loop_DegradedLateDispatch(t *testing.T) {
	l := startLoop(t)
	e, err := trampoline.New(
		trampoline.WithScheduler(l),
		trampoline.WithInstrumented(true),
		trampoline.WithTrampoline(false),
	)
	require.NoError(t, err)

	type result struct {
		elapsed time.Duration
		order   []string
	}
	done := make(chan result, 1)
	var order []string
	start := time.Now()

	require.NoError(t, l.Schedule(func() {
		_ = e.InvokeLater(func(receiver, arg any) {
			order = append(order, "late")
			done <- result{time.Since(start), order}
		}, nil, nil)
		_ = e.Invoke(func(receiver, arg any) {
			order = append(order, "normal")
		}, nil, nil)
	}))

	select {
	case r := <-done:
		assert.Equal(t, []string{"normal", "late"}, r.order)
		assert.GreaterOrEqual(t, r.elapsed, trampoline.LateDispatchDelay)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestEngine_Loop_SchedulerTerminated(t *testing.T) {
	l, err := loop.New()
	require.NoError(t, err)
	require.NoError(t, l.Shutdown(context.Background()))

	e, err := trampoline.New(trampoline.WithScheduler(l))
	require.NoError(t, err)

	err = e.Invoke(func(receiver, arg any) {}, nil, nil)
	assert.ErrorIs(t, err, trampoline.ErrScheduleFailed)
	assert.ErrorIs(t, err, loop.ErrLoopTerminated)

	err = e.ThrowValueLater("x")
	assert.ErrorIs(t, err, trampoline.ErrNoAsyncScheduler)
}
