package readiness

import (
	"context"
	"time"
)

// Outcome is the result of a bounded readiness wait.
type Outcome int

const (
	// Ready indicates the predicate was satisfied within the timeout.
	Ready Outcome = iota
	// TimedOut indicates the timeout elapsed or the wait was cancelled before
	// the predicate was satisfied.
	TimedOut
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	if o == Ready {
		return "ready"
	}

	return "timed out"
}

// Predicate is a readiness condition computed from live cluster status.
// Returning an error counts as "not ready yet", never as a failure.
type Predicate func(ctx context.Context) (bool, error)

// Poll evaluates predicate every interval until it is satisfied or timeout
// elapses. Cancellation of ctx is checked at every sleep boundary and returns
// TimedOut immediately so callers can unwind.
func Poll(
	ctx context.Context,
	interval, timeout time.Duration,
	predicate Predicate,
) Outcome {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ready, err := predicate(timeoutCtx)
		if err == nil && ready {
			return Ready
		}

		select {
		case <-timeoutCtx.Done():
			return TimedOut
		case <-ticker.C:
		}
	}
}
