package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
)

const (
	// SuggestPath is the proxy route that returns a suggestion.
	SuggestPath = "/v1/commitcoach"

	// DefaultTimeout is the default timeout for one suggestion request.
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes bounds how much of a reply is read.
	maxResponseBytes = 1 << 20
)

// suggestBody is the JSON body posted to the proxy.
type suggestBody struct {
	Diff  string `json:"diff"`
	Style Style  `json:"style,omitempty"`
}

// suggestReply is the JSON body the proxy answers with.
type suggestReply struct {
	Message *string `json:"message"`
}

// ProxyClient implements Suggester against a CommitCoach proxy.
type ProxyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProxyClient creates a client for the proxy at baseURL.
func NewProxyClient(baseURL string, timeout time.Duration) *ProxyClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout

	return NewProxyClientWithHTTPClient(baseURL, client)
}

// NewProxyClientWithHTTPClient creates a client that sends through httpClient.
func NewProxyClientWithHTTPClient(baseURL string, httpClient *http.Client) *ProxyClient {
	return &ProxyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *ProxyClient) Name() string {
	return "proxy"
}

// Endpoint returns the full URL suggestions are posted to.
func (c *ProxyClient) Endpoint() string {
	return c.baseURL + SuggestPath
}

// Suggest posts the diff and style to the proxy. A non-2xx reply is a
// BackendError carrying the status and raw body. A 2xx reply without a
// usable message yields FallbackMessage.
func (c *ProxyClient) Suggest(ctx context.Context, req *SuggestRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	payload, err := json.Marshal(suggestBody{Diff: req.Diff, Style: req.Style})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.NewInvalidConfigError(fmt.Sprintf("invalid server address %q: %v", c.baseURL, err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	apperrors.LogAPIRequest(c.Name(), c.Endpoint(), string(req.Style), len(req.Diff))
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", apperrors.NewTimeoutError(err)
		}
		return "", apperrors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", apperrors.NewNetworkError(err)
	}
	apperrors.LogAPIResponse(c.Name(), resp.StatusCode, len(body), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperrors.NewBackendError(resp.StatusCode, string(body)).
			WithRetryAfter(apperrors.ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	}

	var reply suggestReply
	if err := json.Unmarshal(body, &reply); err != nil {
		apperrors.Debug("Undecodable proxy reply, using fallback: %v", err)
		return FallbackMessage, nil
	}
	if reply.Message == nil {
		return FallbackMessage, nil
	}
	return NormalizeMessage(*reply.Message), nil
}

// isTimeout reports whether err is a net timeout, as produced by http.Client.Timeout.
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
