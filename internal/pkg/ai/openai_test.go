package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
)

const testAPIKey = "sk-test-key-that-is-long-enough-for-validation"

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAICompleter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewOpenAICompleter(ProviderConfig{
		APIKey:      testAPIKey,
		Endpoint:    server.URL + "/v1",
		Temperature: DefaultTemperature,
	})
	require.NoError(t, err)
	return c
}

func TestNewOpenAICompleter_MissingAPIKey(t *testing.T) {
	_, err := NewOpenAICompleter(ProviderConfig{APIKey: "  "})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingAPIKey))
}

func TestNewOpenAICompleter_Defaults(t *testing.T) {
	c, err := NewOpenAICompleter(ProviderConfig{APIKey: testAPIKey})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
	assert.Equal(t, DefaultOpenAIModel, c.config.Model)
	assert.Equal(t, DefaultTimeout, c.config.Timeout)
}

func TestOpenAICompleter_Complete(t *testing.T) {
	var captured struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"fix: handle nil config"},"finish_reason":"stop"}]}`))
	})

	text, err := c.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "fix: handle nil config", text)

	assert.Equal(t, DefaultOpenAIModel, captured.Model)
	assert.InDelta(t, 0.2, captured.Temperature, 0.0001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "system text", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "user text", captured.Messages[1].Content)
}

func TestOpenAICompleter_Complete_NoChoices(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})

	text, err := c.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Equal(t, FallbackMessage, NormalizeMessage(text))
}

func TestOpenAICompleter_Complete_UpstreamError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"api error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`, "boom"},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`, "Incorrect API key"},
		{"plain body", http.StatusServiceUnavailable, `upstream unavailable`, "upstream unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Complete(context.Background(), "s", "u")
			require.Error(t, err)

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr), "got %T: %v", err, err)
			assert.Equal(t, "OpenAI", upErr.Provider)
			assert.Equal(t, tt.status, upErr.StatusCode)
			assert.Contains(t, upErr.Body, tt.want)
			assert.Contains(t, upErr.Error(), "OpenAI error")
		})
	}
}

func TestOpenAICompleter_Complete_KeepsRawErrorBody(t *testing.T) {
	raw := `{"error":{"message":"boom","type":"server_error","param":null,"code":"x1"},"request_id":"req_42"}`
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(raw))
	})

	_, err := c.Complete(context.Background(), "s", "u")
	require.Error(t, err)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr), "got %T: %v", err, err)
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Equal(t, raw, upErr.Body)
}

func TestWrapOpenAIError(t *testing.T) {
	err := wrapOpenAIError(&openai.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "bad gateway"})
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
	assert.Contains(t, upErr.Body, "bad gateway")

	plain := errors.New("dial tcp: connection refused")
	assert.Equal(t, plain, wrapOpenAIError(plain))
}
