package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitcoach/commitcoach/internal/pkg/ai"
)

// fakeCompleter records prompts and answers with a fixed reply.
type fakeCompleter struct {
	mu     sync.Mutex
	calls  int
	system string
	user   string
	reply  string
	err    error
	name   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.system, f.user = system, user
	return f.reply, f.err
}

func (f *fakeCompleter) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func newTestRouter(c ai.Completer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return BuildRouter(RouterDeps{Version: "test", Completer: c, Logger: zerolog.Nop()})
}

func postSuggest(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, ai.SuggestPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestSuggest_Success(t *testing.T) {
	c := &fakeCompleter{reply: "\n  feat(api): add suggest route  \n"}
	rr := postSuggest(t, newTestRouter(c), `{"diff":"+hello","style":"casual"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var body SuggestResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "feat(api): add suggest route", body.Message)

	assert.Equal(t, 1, c.calls)
	assert.Equal(t, ai.Compose(ai.StyleCasual, "+hello"), c.user)
	assert.Equal(t, ai.SystemPrompt(ai.StyleCasual), c.system)
}

func TestSuggest_StyleNormalised(t *testing.T) {
	tests := []struct {
		name string
		body string
		want ai.Style
	}{
		{"missing", `{"diff":"+x"}`, ai.StyleConventional},
		{"blank", `{"diff":"+x","style":"  "}`, ai.StyleConventional},
		{"upper case", `{"diff":"+x","style":"FORMAL"}`, ai.StyleFormal},
		{"unknown", `{"diff":"+x","style":"pirate"}`, ai.Style("pirate")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{reply: "fix: x"}
			rr := postSuggest(t, newTestRouter(c), tt.body)

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, ai.Compose(tt.want, "+x"), c.user)
			assert.Equal(t, ai.SystemPrompt(tt.want), c.system)
		})
	}
}

func TestSuggest_UnknownStyleGetsGenericHint(t *testing.T) {
	c := &fakeCompleter{reply: "fix: x"}
	rr := postSuggest(t, newTestRouter(c), `{"diff":"+x","style":"pirate"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, c.user, "STYLE: pirate\n")
	assert.Contains(t, c.user, "Be clear and concise.")
	assert.NotContains(t, c.user, "Conventional Commits")
}

func TestSuggest_DiffRequired(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty diff", `{"diff":""}`},
		{"wrong type", `{"diff":42}`},
		{"not json", `diff=+x`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{reply: "feat: x"}
			rr := postSuggest(t, newTestRouter(c), tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "diff required", decodeError(t, rr))
			assert.Equal(t, 0, c.calls, "no upstream call for a bad request")
		})
	}
}

func TestSuggest_EmptyReplyFallsBack(t *testing.T) {
	for _, reply := range []string{"", "   \n"} {
		rr := postSuggest(t, newTestRouter(&fakeCompleter{reply: reply}), `{"diff":"+x"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		var body SuggestResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, ai.FallbackMessage, body.Message)
	}
}

func TestSuggest_UpstreamError(t *testing.T) {
	c := &fakeCompleter{err: &ai.UpstreamError{Provider: "OpenAI", StatusCode: 500, Body: `{"error":{"message":"boom"}}`}}
	rr := postSuggest(t, newTestRouter(c), `{"diff":"+x"}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	msg := decodeError(t, rr)
	assert.Contains(t, msg, "500")
	assert.True(t, strings.HasPrefix(msg, "OpenAI error 500: "))
}

func TestSuggest_OtherError(t *testing.T) {
	c := &fakeCompleter{err: errors.New("dial tcp: connection refused")}
	rr := postSuggest(t, newTestRouter(c), `{"diff":"+x"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "server error", decodeError(t, rr))
}

func TestSuggest_AgainstOpenAIUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	}))
	defer upstream.Close()

	completer, err := ai.NewOpenAICompleter(ai.ProviderConfig{
		APIKey:   "sk-test-key-that-is-long-enough-for-validation",
		Endpoint: upstream.URL + "/v1",
	})
	require.NoError(t, err)

	rr := postSuggest(t, newTestRouter(completer), `{"diff":"+x"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, decodeError(t, rr), "500")
}

func TestSuggest_MethodNotAllowedIsNotFound(t *testing.T) {
	r := newTestRouter(&fakeCompleter{})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, ai.SuggestPath, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(&fakeCompleter{name: "openai"})

	for _, path := range []string{"/health", "/healthz"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rr.Code, path)
		var body HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, ServiceName, body.Service)
		assert.Equal(t, "test", body.Version)
		assert.Equal(t, "openai", body.Upstream)
	}
}

func TestProxyClientRoundTrip(t *testing.T) {
	server := httptest.NewServer(newTestRouter(&fakeCompleter{reply: "test: cover round trip"}))
	defer server.Close()

	msg, err := ai.NewProxyClient(server.URL, 0).Suggest(context.Background(), &ai.SuggestRequest{Diff: "+x", Style: ai.StyleFormal})
	require.NoError(t, err)
	assert.Equal(t, "test: cover round trip", msg)

	// A bad request surfaces as a backend error with the proxy's body.
	_, err = ai.NewProxyClient(server.URL, 0).Suggest(context.Background(), &ai.SuggestRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "diff required")
}
