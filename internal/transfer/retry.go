package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3transfer/internal/retry"
)

// withRetry calls fn until it succeeds, fails with a non-retryable error,
// exhausts the attempt ceiling, or ctx ends. Cached clock offsets are
// applied before each attempt and skew rejections are measured after it.
// It returns the number of attempts made.
func (c *Command) withRetry(ctx context.Context, log *slog.Logger, fn func(attempt int) error) (int, error) {
	cfg := c.exec.cfg
	policy := backoff.WithContext(cfg.Backoff.Policy(cfg.MaxAttempts), ctx)

	attempts := 0
	operation := func() error {
		attempts++
		c.exec.preRequest(log)

		err := fn(attempts)
		if err == nil {
			return nil
		}
		if skew, ok := retry.IsClockSkew(err); ok {
			c.exec.correctSkew(log, skew)
		}
		if ctx.Err() != nil || retry.Classify(err) == retry.NonRetryable {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("attempt failed, retrying",
			"attempt", attempts,
			"wait", wait,
			"error", err)
	}

	err := backoff.RetryNotify(operation, policy, notify)
	if err == nil {
		return attempts, nil
	}
	if ctx.Err() == nil && retry.Classify(err) == retry.Retryable {
		err = fmt.Errorf("%w after %d attempts: %w", errors.ErrAttemptsExhausted, attempts, err)
	}
	return attempts, err
}

// attemptContext bounds a single attempt by the configured part timeout.
func (c *Command) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := c.exec.cfg.PartTimeout; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (c *Command) wrap(op string, part int, err error) error {
	return errors.NewError(op, err).
		WithBucket(c.target.Bucket).
		WithKey(c.target.Key).
		WithPart(part)
}
