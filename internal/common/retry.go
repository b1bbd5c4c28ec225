package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/zenith/internal/service"
)

var (
	// ErrRateLimit marks a throttled call; the next attempt waits MaxDelay.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries is returned once every attempt has failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError overrides the default retry decision for Err.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &RetryableError{Err: err, Retryable: false}
}

func throttled(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrPlaidRateLimit)
}

// IsRetryable reports whether err is known to be transient. WithRetry is
// more lenient: it retries everything not marked Permanent.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var r *RetryableError
	if errors.As(err, &r) {
		return r.Retryable
	}
	return throttled(err) || errors.Is(err, context.DeadlineExceeded)
}

func withDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2
	}
	return opts
}

// WithRetry calls operation until it succeeds, fails permanently or runs
// out of attempts, backing off exponentially between tries.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = withDefaults(opts)

	delay := opts.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil {
			return nil
		}
		var r *RetryableError
		if errors.As(err, &r) && !r.Retryable {
			return err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		wait := delay
		if throttled(err) {
			wait = opts.MaxDelay
		}
		slog.Warn("operation failed, retrying", "attempt", attempt, "max_attempts", opts.MaxAttempts, "delay", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(time.Duration(float64(delay)*opts.Multiplier), opts.MaxDelay)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
}
