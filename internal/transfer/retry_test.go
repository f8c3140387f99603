package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fastRetry keeps backoff negligible in tests
func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, Terminal},
		{"status 500", &StatusError{StatusCode: 500}, Transient},
		{"status 503", &StatusError{StatusCode: 503}, Transient},
		{"status 404", &StatusError{StatusCode: 404}, Terminal},
		{"status 400", &StatusError{StatusCode: 400}, Terminal},
		{"wrapped status 502", fmt.Errorf("upload failed: %w", &StatusError{StatusCode: 502}), Transient},
		{"net error", timeoutErr{}, Transient},
		{"context cancelled", context.Canceled, Terminal},
		{"deadline exceeded", context.DeadlineExceeded, Terminal},
		{"text mentions 503", errors.New("server said 503 service unavailable"), Transient},
		{"text mentions 500", errors.New("got 500 back"), Transient},
		{"plain error", errors.New("something broke"), Terminal},
		{"text mentions 404", errors.New("not found: 404"), Terminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestWithRetry_TransientThenSuccess(t *testing.T) {
	calls := 0
	result, err := WithRetry(context.Background(), fastRetry(), func() (string, error) {
		calls++
		if calls <= 2 {
			return "", &StatusError{StatusCode: 503, Body: "unavailable"}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", result)
	// Two failures, two delayed retries, success on the third attempt
	require.Equal(t, 3, calls)
}

func TestWithRetry_TerminalFailsImmediately(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastRetry(), func() (string, error) {
		calls++
		return "", &StatusError{StatusCode: 404, Body: "no such object"}
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 404, statusErr.StatusCode)
}

func TestWithRetry_ExhaustionReturnsLastError(t *testing.T) {
	calls := 0
	last := &StatusError{StatusCode: 500, Body: "still broken"}
	_, err := WithRetry(context.Background(), fastRetry(), func() (string, error) {
		calls++
		return "", last
	})

	require.Equal(t, 3, calls)
	// The last error comes back unchanged
	require.Equal(t, error(last), err)
}

func TestWithRetry_ContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	done := make(chan error, 1)
	go func() {
		_, err := WithRetry(ctx, cfg, func() (string, error) {
			calls++
			return "", &StatusError{StatusCode: 503}
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 1, calls)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 500 * time.Millisecond, MaxDelay: 30 * time.Second}

	require.Equal(t, 500*time.Millisecond, backoffDelay(0, cfg))
	require.Equal(t, time.Second, backoffDelay(1, cfg))
	require.Equal(t, 2*time.Second, backoffDelay(2, cfg))

	// Capped at MaxDelay
	require.Equal(t, 30*time.Second, backoffDelay(10, cfg))
}
