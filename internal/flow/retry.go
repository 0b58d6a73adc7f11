package flow

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/oshokin/recall-lens/internal/logger"
)

// RetryPolicy bounds retries of idempotent backend reads.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. Zero disables retries.
	MaxRetries uint64
	// InitialInterval is the first backoff delay; later delays grow exponentially.
	InitialInterval time.Duration
}

// retry runs op, retrying only errors that match retryable.
func (f *Flow) retry(ctx context.Context, operation string, retryable error, op func() error) error {
	if f.retryPolicy.MaxRetries == 0 {
		return op()
	}

	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = f.retryPolicy.InitialInterval
	exponential.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exponential, f.retryPolicy.MaxRetries), ctx)

	return backoff.RetryNotify(
		func() error {
			err := op()
			if err != nil && !errors.Is(err, retryable) {
				return backoff.Permanent(err)
			}

			return err
		},
		policy,
		func(err error, wait time.Duration) {
			f.metrics.IncrementRetries(operation)
			logger.WarnKV(ctx, "Retrying backend call", "operation", operation, "error", err, "wait", wait)
		},
	)
}
