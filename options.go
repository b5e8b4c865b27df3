// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package trampoline

import (
	"io"
	"math"

	"github.com/joeycumines/logiface"
)

// DefaultBatchSize is large enough that, in practice, no batching occurs.
const DefaultBatchSize = math.MaxInt

// engineOptions holds configuration options for Engine creation.
type engineOptions struct {
	scheduler         Scheduler
	timeoutScheduler  TimeoutScheduler
	logger            *logiface.Logger[logiface.Event]
	diagnostic        io.Writer
	exit              func(code int)
	batchSize         int
	trampolineEnabled bool
	instrumented      bool
}

// Option configures an Engine instance.
type Option interface {
	applyEngine(*engineOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyEngineFunc func(*engineOptions) error
}

func (o *optionImpl) applyEngine(opts *engineOptions) error {
	return o.applyEngineFunc(opts)
}

// WithScheduler sets the Scheduler Port, marking the engine as using a
// custom scheduler. Defaults to [loop.Default].
func WithScheduler(scheduler Scheduler) Option {
	return &optionImpl{func(opts *engineOptions) error {
		if scheduler == nil {
			return &TypeError{Cause: ErrNilScheduler}
		}
		opts.scheduler = scheduler
		return nil
	}}
}

// WithTimeoutScheduler overrides the delayed-execution fallback.
// See [Engine.TimeoutScheduler] for the default behavior.
func WithTimeoutScheduler(timeoutScheduler TimeoutScheduler) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.timeoutScheduler = timeoutScheduler
		return nil
	}}
}

// WithBatchSize caps the number of callbacks run per drain pass.
// Must be positive. Defaults to [DefaultBatchSize].
func WithBatchSize(n int) Option {
	return &optionImpl{func(opts *engineOptions) error {
		if n <= 0 {
			return &RangeError{Cause: ErrInvalidBatchSize}
		}
		opts.batchSize = n
		return nil
	}}
}

// WithTrampoline sets whether work is batched through the queues (the
// default), or dispatched directly via the scheduler. Disabling it only has
// an effect when combined with WithInstrumented(true).
func WithTrampoline(enabled bool) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.trampolineEnabled = enabled
		return nil
	}}
}

// WithInstrumented indicates the host is being interactively debugged. This
// permits direct dispatch (see [Engine.DisableTrampolineIfNecessary]), which
// trades throughput for clearer stack traces.
func WithInstrumented(instrumented bool) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.instrumented = instrumented
		return nil
	}}
}

// WithLogger configures structured logging. Logging is disabled by default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithDiagnosticWriter sets the stream [Engine.FatalError] writes to, in
// privileged hosts. Defaults to os.Stderr.
func WithDiagnosticWriter(w io.Writer) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.diagnostic = w
		return nil
	}}
}

// WithExitFunc sets the process termination primitive used by
// [Engine.FatalError], in privileged hosts. Defaults to os.Exit.
func WithExitFunc(exit func(code int)) Option {
	return &optionImpl{func(opts *engineOptions) error {
		opts.exit = exit
		return nil
	}}
}

// resolveOptions applies Option instances to engineOptions.
func resolveOptions(opts []Option) (*engineOptions, error) {
	cfg := &engineOptions{
		batchSize:         DefaultBatchSize,
		trampolineEnabled: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyEngine(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
