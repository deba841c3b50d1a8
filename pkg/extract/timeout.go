package extract

import (
	"context"
	"errors"
	"time"
)

// withTimeout runs the inner pipeline under the configured wall-clock
// budget. A zero budget runs to completion unconditionally.
func (e *Extractor) withTimeout(ctx context.Context, raw string) Outcome {
	secs := e.cfg.TimeoutSeconds
	if secs == 0 {
		return e.extract(ctx, raw)
	}
	return runWithBudget(ctx, time.Duration(secs)*time.Second, secs, func(c context.Context) Outcome {
		return e.extract(c, raw)
	})
}

// runWithBudget executes fn in its own goroutine and stops blocking the
// caller at the deadline. Cancellation is cooperative: fn receives the
// deadlined context, and both the parser and the walk poll it, so the
// abandoned goroutine exits shortly after expiry instead of running on.
func runWithBudget(ctx context.Context, budget time.Duration, secs uint32, fn func(context.Context) Outcome) Outcome {
	cctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() { done <- fn(cctx) }()

	select {
	case out := <-done:
		// A cancelled walk returns partial paragraphs; discard them.
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return TimedOut(secs)
		}
		return out
	case <-cctx.Done():
		return TimedOut(secs)
	}
}
