package watch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultRetryInterval is the pause between WaitFor probes.
const DefaultRetryInterval = 100 * time.Millisecond

// ErrRetriesExhausted reports that WaitFor gave up before the probe succeeded.
var ErrRetriesExhausted = errors.New("retries exhausted")

// WaitOptions bounds a WaitFor call.
type WaitOptions struct {
	// MaxRetry is the maximum number of probe attempts. Zero or negative retries until ctx ends.
	MaxRetry      int
	RetryInterval time.Duration
}

// WaitFor calls probe until it succeeds, the attempts run out, or ctx is done.
func WaitFor[T any](ctx context.Context, probe func(context.Context) (T, error), opts WaitOptions) (T, error) {
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	var zero T
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for attempt := 1; ; attempt++ {
		value, err := probe(ctx)
		if err == nil {
			return value, nil
		}
		if opts.MaxRetry > 0 && attempt >= opts.MaxRetry {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
