// internal/capture/context.go
package capture

import (
	"context"
	"time"
)

// combineContext derives a context from ctx1 (the session context, which
// carries the CDP target) that is additionally canceled when ctx2 (the
// operational context, which carries the caller's deadline) is done.
// chromedp requires the target values from ctx1, so the combined context
// must inherit from it rather than from the caller.
func combineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(ctx1)

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}

// valueOnlyContext inherits values from its parent but ignores the parent's
// deadline and cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// detach returns a context that keeps ctx's values (the CDP target) but is
// not canceled when ctx is. Used for cleanup that must outlive a failed
// operation.
func detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
