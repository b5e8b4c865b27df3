package trampoline

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ThrowLater_PrefersTimeoutScheduler(t *testing.T) {
	s := &manualScheduler{}
	ts := &manualTimeoutScheduler{}
	e, err := New(WithScheduler(s), WithTimeoutScheduler(ts))
	require.NoError(t, err)

	var got any
	require.NoError(t, e.ThrowLater(func(arg any) { got = arg }, "value"))

	assert.Nil(t, got, "must not run synchronously")
	assert.Equal(t, 0, s.pending())
	require.Len(t, ts.calls, 1)
	assert.Equal(t, time.Duration(0), ts.calls[0].delay)

	ts.calls[0].task()
	assert.Equal(t, "value", got)
}

func TestEngine_ThrowLater_FallsBackToScheduler(t *testing.T) {
	t.Run("no timeout scheduler", func(t *testing.T) {
		e, s := newTestEngine(t)

		var got any
		require.NoError(t, e.ThrowLater(func(arg any) { got = arg }, 42))
		require.Equal(t, 1, s.pending())
		s.runNext()
		assert.Equal(t, 42, got)
	})

	t.Run("timeout scheduler rejects", func(t *testing.T) {
		ts := &manualTimeoutScheduler{err: errors.New("no timers")}
		e, s := newTestEngine(t, WithTimeoutScheduler(ts))

		var got any
		require.NoError(t, e.ThrowLater(func(arg any) { got = arg }, 42))
		require.Equal(t, 1, s.pending())
		s.runNext()
		assert.Equal(t, 42, got)
	})
}

func TestEngine_ThrowLater_NoAsyncScheduler(t *testing.T) {
	timersErr := errors.New("no timers")
	schedErr := errors.New("no scheduler")
	ts := &manualTimeoutScheduler{err: timersErr}
	e, s := newTestEngine(t, WithTimeoutScheduler(ts))
	s.err = schedErr

	err := e.ThrowLater(func(arg any) {}, nil)
	require.ErrorIs(t, err, ErrNoAsyncScheduler)
	assert.ErrorIs(t, err, timersErr)
	assert.ErrorIs(t, err, schedErr)
}

func TestEngine_ThrowLater_NilFunc(t *testing.T) {
	e, _ := newTestEngine(t)
	defer func() {
		r := recover()
		err, ok := r.(*TypeError)
		require.True(t, ok, "expected *TypeError, got %T", r)
		assert.ErrorIs(t, err, ErrNilCallback)
	}()
	_ = e.ThrowLater(nil, nil)
	t.Fatal("expected panic")
}

func TestEngine_ThrowValueLater(t *testing.T) {
	e, s := newTestEngine(t)
	value := errors.New("thrown")

	require.NoError(t, e.ThrowValueLater(value))
	require.Equal(t, 1, s.pending())

	defer func() {
		assert.Same(t, value, recover())
	}()
	s.runNext()
	t.Fatal("expected panic")
}

func TestEngine_FatalError_Privileged(t *testing.T) {
	var diag bytes.Buffer
	var codes []int
	e, s := newTestEngine(t,
		WithDiagnosticWriter(&diag),
		WithExitFunc(func(code int) { codes = append(codes, code) }),
	)

	require.NoError(t, e.FatalError(errors.New("disk on fire"), true))
	assert.Equal(t, "Fatal disk on fire\n", diag.String())
	assert.Equal(t, []int{2}, codes)
	assert.Equal(t, 0, s.pending())
}

func TestEngine_FatalError_Unprivileged(t *testing.T) {
	var diag bytes.Buffer
	exited := false
	e, s := newTestEngine(t,
		WithDiagnosticWriter(&diag),
		WithExitFunc(func(int) { exited = true }),
	)

	fatal := errors.New("disk on fire")
	require.NoError(t, e.FatalError(fatal, false))
	assert.False(t, exited)
	assert.Empty(t, diag.String())
	require.Equal(t, 1, s.pending())

	assert.PanicsWithError(t, fatal.Error(), func() { s.runNext() })
}

func TestEngine_FatalError_Unschedulable(t *testing.T) {
	e, s := newTestEngine(t)
	s.err = errors.New("rejected")
	err := e.FatalError(errors.New("disk on fire"), false)
	assert.ErrorIs(t, err, ErrNoAsyncScheduler)
}
