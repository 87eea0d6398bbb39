// Package retry implements bounded retry with exponential backoff.
package retry

import (
	"context"
	"time"

	"internwatch/internal/logger"
)

// Policy bounds a retried operation.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultPolicy matches the feed fetcher contract: 3 attempts, 1s initial
// delay, doubling after each failure.
var DefaultPolicy = Policy{
	MaxAttempts:  3,
	InitialDelay: time.Second,
	Multiplier:   2.0,
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempt budget is exhausted. retryable decides whether an error is worth
// another attempt; a non-retryable error is returned immediately without
// waiting. On exhaustion the last error is returned unchanged. The result
// passes through untouched on success.
func Do[T any](ctx context.Context, log *logger.Logger, p Policy, retryable func(error) bool, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	delay := p.InitialDelay

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		log.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", p.MaxAttempts,
			"delay", delay.String(),
			"err", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}

	log.Error("all attempts failed", "attempts", p.MaxAttempts, "err", lastErr)
	return zero, lastErr
}
