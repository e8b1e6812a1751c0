package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/sashabaranov/go-openai"

	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
)

const (
	// DefaultOpenAIModel is the default model for OpenAI.
	DefaultOpenAIModel = "gpt-4o-mini"

	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 0.2
)

// OpenAICompleter implements Completer with the OpenAI chat completions API.
type OpenAICompleter struct {
	client *openai.Client
	config ProviderConfig
}

// NewOpenAICompleter creates a completer for OpenAI or an OpenAI compatible endpoint.
func NewOpenAICompleter(config ProviderConfig) (*OpenAICompleter, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, apperrors.NewMissingAPIKeyError("openai")
	}

	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		clientConfig.BaseURL = config.Endpoint
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = config.Timeout
	httpClient.Transport = &recordingTransport{base: httpClient.Transport}
	clientConfig.HTTPClient = httpClient

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *OpenAICompleter) Name() string {
	return "openai"
}

// Complete sends one chat completion request. An empty choice list is not an
// error; callers substitute FallbackMessage.
func (p *OpenAICompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	rec := &statusRecorder{}
	ctx = context.WithValue(ctx, statusRecorderKey{}, rec)

	apperrors.LogAPIRequest(p.Name(), p.config.Endpoint, p.config.Model, len(userPrompt))
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		if status, body := rec.get(); status != 0 && body != "" {
			return "", &UpstreamError{Provider: "OpenAI", StatusCode: status, Body: body}
		}
		return "", wrapOpenAIError(err)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	apperrors.LogAPIResponse(p.Name(), http.StatusOK, len(text), time.Since(start))

	return text, nil
}

// wrapOpenAIError turns an HTTP level failure into an UpstreamError and
// leaves transport failures untouched. It only runs when the raw reply body
// was not recorded.
func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		body, mErr := json.Marshal(struct {
			Error *openai.APIError `json:"error"`
		}{apiErr})
		if mErr != nil {
			body = []byte(apiErr.Message)
		}
		return &UpstreamError{Provider: "OpenAI", StatusCode: apiErr.HTTPStatusCode, Body: string(body)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		body := string(reqErr.Body)
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &UpstreamError{Provider: "OpenAI", StatusCode: reqErr.HTTPStatusCode, Body: body}
	}

	return err
}
