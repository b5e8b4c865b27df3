package loop

import (
	"context"
	"sync"
)

var defaultLoop struct {
	once sync.Once
	loop *Loop
}

// Default returns the process-wide loop, starting it on a dedicated
// goroutine on first use. It runs for the lifetime of the process, and must
// not be shut down.
//
// Default is the host scheduler used by engines that were not configured
// with one.
func Default() *Loop {
	defaultLoop.once.Do(func() {
		l, err := New()
		if err != nil {
			// unreachable, the default options are valid
			panic(err)
		}
		defaultLoop.loop = l
		go func() { _ = l.Run(context.Background()) }()
	})
	return defaultLoop.loop
}
