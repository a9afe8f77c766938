package schedule

import (
	"context"
	"time"
)

// Handle controls a function scheduled with RunAt or RunAfter.
type Handle struct {
	timer *time.Timer
}

// Stop prevents the function from running. It reports false when the
// function has already started or the handle was stopped before.
func (h *Handle) Stop() bool {
	return h.timer.Stop()
}

// RunAt executes the function asynchronously at runAt. A time in the past
// runs it as soon as possible.
func RunAt(ctx context.Context, runAt time.Time, execute func(ctx context.Context)) *Handle {
	return RunAfter(ctx, time.Until(runAt), execute)
}

// RunAfter executes the function asynchronously once delay has elapsed.
// Negative delays are treated as zero.
func RunAfter(ctx context.Context, delay time.Duration, execute func(ctx context.Context)) *Handle {
	delay = max(delay, 0)
	return &Handle{
		timer: time.AfterFunc(delay, func() {
			execute(ctx)
		}),
	}
}
