/**
 * @description
 * Retry helper used around per-invoice processing. Transient failures (store
 * write conflicts, flaky provider calls) are retried with exponential backoff;
 * once attempts are exhausted the last error is returned for the run summary.
 */

package app

import (
	"context"
	"fmt"
	"time"
)

// RetryOptions controls the backoff behaviour of withRetry.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// withRetry runs op up to opts.MaxAttempts times, doubling the delay between
// attempts starting from opts.BaseDelay. It respects context cancellation
// while sleeping.
func withRetry(ctx context.Context, opts RetryOptions, op func() error) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}

	delay := opts.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}

		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", opts.MaxAttempts, lastErr)
}
