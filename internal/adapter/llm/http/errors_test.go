package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStatusError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantType      ErrorType
		wantRetryable bool
	}{
		{name: "unauthorized", status: 401, wantType: ErrTypeAuthentication, wantRetryable: false},
		{name: "forbidden", status: 403, wantType: ErrTypeAuthentication, wantRetryable: false},
		{name: "rate limited", status: 429, wantType: ErrTypeRateLimit, wantRetryable: true},
		{name: "server error", status: 500, wantType: ErrTypeServiceUnavailable, wantRetryable: true},
		{name: "bad gateway", status: 502, wantType: ErrTypeServiceUnavailable, wantRetryable: true},
		{name: "bad request", status: 400, wantType: ErrTypeInvalidRequest, wantRetryable: false},
		{name: "not found", status: 404, wantType: ErrTypeInvalidRequest, wantRetryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapStatusError("anthropic", tt.status, []byte("body"))

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantRetryable, apiErr.Retryable)
			assert.Equal(t, "anthropic", apiErr.Upstream)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewRateLimitError("gemini", "quota exceeded")
	assert.Contains(t, err.Error(), "gemini")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("calling upstream: %w", NewTimeoutError("anthropic", "deadline exceeded"))

	var apiErr *Error
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, ErrTypeTimeout, apiErr.Type)
	assert.True(t, apiErr.Retryable)
}
