package ai

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"

	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
)

// LangChainCompleter implements Completer over any langchaingo model.
type LangChainCompleter struct {
	llm          llms.Model
	config       ProviderConfig
	providerName string
	displayName  string
}

// NewLangChainCompleter wraps llm. displayName is used in UpstreamError.
func NewLangChainCompleter(llm llms.Model, config ProviderConfig, providerName, displayName string) *LangChainCompleter {
	return &LangChainCompleter{
		llm:          llm,
		config:       config,
		providerName: providerName,
		displayName:  displayName,
	}
}

// Name returns the provider name.
func (c *LangChainCompleter) Name() string {
	return c.providerName
}

// Complete performs a single model call. There are no retries.
func (c *LangChainCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	opts := []llms.CallOption{llms.WithTemperature(float64(c.config.Temperature))}
	if c.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.config.MaxTokens))
	}

	rec := &statusRecorder{}
	ctx = context.WithValue(ctx, statusRecorderKey{}, rec)

	apperrors.LogAPIRequest(c.providerName, c.config.Endpoint, c.config.Model, len(userPrompt))
	start := time.Now()

	resp, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		if status, body := rec.get(); status != 0 {
			return "", &UpstreamError{Provider: c.displayName, StatusCode: status, Body: body}
		}
		return "", err
	}

	text := ""
	if resp != nil && len(resp.Choices) > 0 {
		text = resp.Choices[0].Content
	}
	apperrors.LogAPIResponse(c.providerName, http.StatusOK, len(text), time.Since(start))

	return text, nil
}

type statusRecorderKey struct{}

// statusRecorder keeps the last non-2xx reply seen during one call.
type statusRecorder struct {
	mu     sync.Mutex
	status int
	body   string
}

func (r *statusRecorder) set(status int, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status, r.body = status, body
}

func (r *statusRecorder) get() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.body
}

// recordingTransport copies non-2xx replies into the statusRecorder carried
// by the request context, so model errors keep their HTTP status.
type recordingTransport struct {
	base http.RoundTripper
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < 300 {
		return resp, err
	}

	rec, ok := req.Context().Value(statusRecorderKey{}).(*statusRecorder)
	if !ok {
		return resp, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	rec.set(resp.StatusCode, string(bytes.TrimSpace(body)))
	resp.Body = io.NopCloser(bytes.NewReader(body))

	return resp, nil
}
