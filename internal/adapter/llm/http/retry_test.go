package http

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoffBounds(t *testing.T) {
	config := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
		Multiplier:     2.0,
	}

	for attempt := 0; attempt < 10; attempt++ {
		backoff := ExponentialBackoff(attempt, config)
		assert.GreaterOrEqual(t, backoff, time.Duration(0))
		assert.LessOrEqual(t, backoff, config.MaxBackoff)
	}
}

func TestExponentialBackoffGrowth(t *testing.T) {
	config := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Hour,
		Multiplier:     2.0,
	}

	// With ±25% jitter, attempt 3 (800ms nominal) always exceeds
	// attempt 0 (100ms nominal)
	first := ExponentialBackoff(0, config)
	later := ExponentialBackoff(3, config)
	assert.Greater(t, later, first)
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "rate limit", err: NewRateLimitError("anthropic", "slow down"), want: true},
		{name: "service unavailable", err: NewServiceUnavailableError("gemini", "overloaded"), want: true},
		{name: "authentication", err: NewAuthenticationError("anthropic", "bad key"), want: false},
		{name: "invalid request", err: NewInvalidRequestError("gemini", "bad prompt"), want: false},
		{name: "generic error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRetry(tt.err))
		})
	}
}

func TestRetryWithBackoffSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return NewServiceUnavailableError("anthropic", "try again")
		}
		return nil
	}

	config := RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}

	err := RetryWithBackoff(context.Background(), op, config)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		return NewAuthenticationError("anthropic", "bad key")
	}

	err := RetryWithBackoff(context.Background(), op, DefaultRetryConfig())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	attempts := 0
	op := func(ctx context.Context) error {
		attempts++
		return NewRateLimitError("gemini", "quota")
	}

	config := RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}

	err := RetryWithBackoff(context.Background(), op, config)
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := func(ctx context.Context) error {
		return NewRateLimitError("anthropic", "quota")
	}

	err := RetryWithBackoff(ctx, op, DefaultRetryConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
