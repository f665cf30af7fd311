// Package resilience provides the bounded retry discipline and transient
// error taxonomy shared by source adapters and live resolvers.
package resilience

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAttempts = 3
	defaultWait     = 2 * time.Second
)

// RetryConfig is a fixed-wait retry policy.
type RetryConfig struct {
	// MaxAttempts counts the first call. Non-positive means 3.
	MaxAttempts int
	// Wait separates consecutive attempts. Nothing waits after the last one.
	Wait time.Duration
	// ShouldRetry replaces IsTransient when set.
	ShouldRetry func(err error) bool
	// OnRetry runs before each wait with the 1-based number of the failed attempt.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig is 3 attempts, 2s apart.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: defaultAttempts, Wait: defaultWait}
}

// FixedRetryConfig returns attempts tries separated by wait, keeping the
// defaults for non-positive inputs.
func FixedRetryConfig(attempts int, wait time.Duration) RetryConfig {
	cfg := DefaultRetryConfig()
	if attempts > 0 {
		cfg.MaxAttempts = attempts
	}
	if wait > 0 {
		cfg.Wait = wait
	}
	return cfg
}

// FromMillis is FixedRetryConfig for config values in milliseconds.
func FromMillis(maxAttempts, waitMs int) RetryConfig {
	return FixedRetryConfig(maxAttempts, time.Duration(waitMs)*time.Millisecond)
}

// ExhaustedError reports that every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs fn under cfg. See DoVal.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal calls fn until it succeeds, fails with a non-retryable error, ctx
// ends, or MaxAttempts calls have failed. Non-retryable errors come back
// unchanged; running out of attempts yields an *ExhaustedError around the
// last failure.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	retryable := cfg.ShouldRetry
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var last error
	for n := 1; n <= attempts; n++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		last = err
		if ctx.Err() != nil || !retryable(err) {
			return zero, err
		}
		if n == attempts {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(n, err)
		}
		if Sleep(ctx, cfg.Wait) != nil {
			return zero, last
		}
	}
	return zero, &ExhaustedError{Attempts: attempts, Err: last}
}

// Sleep pauses for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryLogger returns an OnRetry callback that logs at warn level.
func RetryLogger(source, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying request",
			zap.String("source", source),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
