package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatagent/code-analyzer/internal/adapter/llm/gemini"
	llmhttp "github.com/chatagent/code-analyzer/internal/adapter/llm/http"
)

func fastRetryConfig() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestHTTPClient_Call_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Contains(t, r.URL.Path, "gemini-1.5-pro:generateContent")
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))

		var req gemini.GenerateContentRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "test prompt", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gemini.GenerateContentResponse{
			Candidates: []gemini.Candidate{
				{
					Content: gemini.Content{
						Parts: []gemini.Part{{Text: "analysis result"}},
						Role:  "model",
					},
					FinishReason: "STOP",
				},
			},
			UsageMetadata: gemini.UsageMetadata{
				PromptTokenCount:     15,
				CandidatesTokenCount: 30,
			},
		})
	}))
	defer server.Close()

	client := gemini.NewHTTPClient("test-api-key", "gemini-1.5-pro")
	client.SetBaseURL(server.URL)

	resp, err := client.Call(context.Background(), "test prompt", gemini.CallOptions{})

	require.NoError(t, err)
	assert.Equal(t, "analysis result", resp.Text)
	assert.Equal(t, 15, resp.TokensIn)
	assert.Equal(t, 30, resp.TokensOut)
	assert.Equal(t, "STOP", resp.FinishReason)
}

func TestHTTPClient_Call_RateLimitRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gemini.GenerateContentResponse{
			Candidates: []gemini.Candidate{
				{Content: gemini.Content{Parts: []gemini.Part{{Text: "ok"}}}, FinishReason: "STOP"},
			},
		})
	}))
	defer server.Close()

	client := gemini.NewHTTPClient("test-api-key", "gemini-1.5-pro")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(fastRetryConfig())

	resp, err := client.Call(context.Background(), "test prompt", gemini.CallOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 3, calls)
}

func TestHTTPClient_Call_SafetyBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gemini.GenerateContentResponse{
			Candidates: []gemini.Candidate{
				{FinishReason: "SAFETY"},
			},
		})
	}))
	defer server.Close()

	client := gemini.NewHTTPClient("test-api-key", "gemini-1.5-pro")
	client.SetBaseURL(server.URL)

	_, err := client.Call(context.Background(), "test prompt", gemini.CallOptions{})

	require.Error(t, err)
	var apiErr *llmhttp.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, llmhttp.ErrTypeInvalidRequest, apiErr.Type)
	assert.False(t, apiErr.Retryable)
}

func TestHTTPClient_Call_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gemini.GenerateContentResponse{})
	}))
	defer server.Close()

	client := gemini.NewHTTPClient("test-api-key", "gemini-1.5-pro")
	client.SetBaseURL(server.URL)

	_, err := client.Call(context.Background(), "test prompt", gemini.CallOptions{})

	assert.ErrorContains(t, err, "no candidates")
}

func TestProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gemini.GenerateContentResponse{
			Candidates: []gemini.Candidate{
				{Content: gemini.Content{Parts: []gemini.Part{{Text: "all good"}}}, FinishReason: "STOP"},
			},
		})
	}))
	defer server.Close()

	client := gemini.NewHTTPClient("test-api-key", "gemini-1.5-pro")
	client.SetBaseURL(server.URL)

	provider := gemini.NewProvider(client)
	assert.Equal(t, "gemini", provider.Name())

	text, err := provider.Complete(context.Background(), "analyze this")
	require.NoError(t, err)
	assert.Equal(t, "all good", text)
}
