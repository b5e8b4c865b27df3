// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package loop

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"
)

// defaultTaskBudget is the number of tasks run per pass, before expired
// timers get a turn.
const defaultTaskBudget = 256

// defaultPanicLogRates bound how often recovered panics are logged, per
// distinct panic message.
var defaultPanicLogRates = map[time.Duration]int{
	time.Second: 5,
	time.Minute: 60,
}

// loopOptions holds configuration options for Loop creation.
type loopOptions struct {
	logger        *logiface.Logger[logiface.Event]
	onPanic       func(PanicError)
	panicLogRates map[time.Duration]int
	taskBudget    int
}

// Option configures a Loop instance.
type Option interface {
	applyLoop(*loopOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (o *optionImpl) applyLoop(opts *loopOptions) error {
	return o.applyLoopFunc(opts)
}

// WithLogger configures structured logging. Logging is disabled by default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithPanicHandler sets a function to be called, on the loop goroutine, with
// each panic recovered from a task. This is the loop's unhandled-panic
// policy: the loop itself always continues.
func WithPanicHandler(fn func(PanicError)) Option {
	return &optionImpl{func(opts *loopOptions) error {
		opts.onPanic = fn
		return nil
	}}
}

// WithPanicLogRates sets the rate limits for logging recovered panics, per
// distinct panic message, see [catrate.NewLimiter]. A nil or empty map
// disables rate limiting.
func WithPanicLogRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *loopOptions) error {
		opts.panicLogRates = rates
		return nil
	}}
}

// WithTaskBudget sets the maximum number of tasks run per pass, before
// expired timers are checked. Must be positive.
func WithTaskBudget(n int) Option {
	return &optionImpl{func(opts *loopOptions) error {
		if n <= 0 {
			return errors.New("loop: task budget must be positive")
		}
		opts.taskBudget = n
		return nil
	}}
}

// resolveLoopOptions applies Option instances to loopOptions.
func resolveLoopOptions(opts []Option) (*loopOptions, error) {
	cfg := &loopOptions{
		panicLogRates: defaultPanicLogRates,
		taskBudget:    defaultTaskBudget,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
