package trampoline

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// NewLogger builds a JSON logger, writing to w, suitable for [WithLogger]
// (and [loop.WithLogger]). Events more verbose than level are discarded.
//
// Any logiface logger may be used instead, this is a convenience.
func NewLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}
