package transfer

import (
	"context"
	"errors"
	"math"
	"net"
	"strings"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of attempts (1 initial + retries)
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the initial backoff duration
	DefaultBaseDelay = 500 * time.Millisecond
	// DefaultMaxDelay caps the exponential backoff
	DefaultMaxDelay = 30 * time.Second
)

// Class labels an error for retry purposes
type Class int

const (
	// Terminal errors propagate immediately (4xx, malformed responses,
	// local errors)
	Terminal Class = iota
	// Transient errors are worth retrying (connection failures, 5xx)
	Transient
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// retryableStatusTokens are the status codes recognized as transient
// when they appear in an error's text. Errors crossing this package's
// boundary don't always carry a typed status, so the historical
// text-scanning heuristic is kept, isolated here as a testable unit.
var retryableStatusTokens = []string{"500", "502", "503", "504"}

// Classify determines whether an error is transient (retry) or
// terminal (propagate immediately).
func Classify(err error) Class {
	if err == nil {
		return Terminal
	}

	// Context cancellation is never retried
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Terminal
	}

	// Typed transfer status: 5xx transient, everything else terminal
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= 500 && statusErr.StatusCode <= 599 {
			return Transient
		}
		return Terminal
	}

	// Connection-layer errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}

	// Untyped errors: fall back to scanning the message for a 5xx token
	msg := err.Error()
	for _, token := range retryableStatusTokens {
		if strings.Contains(msg, token) {
			return Transient
		}
	}

	return Terminal
}

// backoffDelay calculates the delay before the given retry attempt
func backoffDelay(attempt int, cfg RetryConfig) time.Duration {
	delay := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt)))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

// WithRetry runs fn until it succeeds, the error classifies as
// terminal, or attempts are exhausted. The last error is returned
// unchanged after exhaustion.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if Classify(err) != Transient {
			return zero, err
		}

		// Don't sleep after the final attempt
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoffDelay(attempt, cfg)):
		}
	}

	return zero, lastErr
}

// WithRetryNoResult wraps a function that returns only an error
func WithRetryNoResult(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := WithRetry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
