package ai

import (
	"fmt"

	"github.com/commitcoach/commitcoach/internal/pkg/config"
)

// NewCompleter creates the upstream completer named by the proxy configuration.
func NewCompleter(cfg *config.UpstreamConfig) (Completer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("upstream configuration is required")
	}

	pc := ProviderConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Endpoint:    cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}

	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAICompleter(pc)
	case config.ProviderOllama:
		return NewOllamaCompleter(pc)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

// NewSuggester creates the CLI side suggester for the configured server.
func NewSuggester(cfg *config.ServerConfig) (Suggester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server configuration is required")
	}
	return NewProxyClient(cfg.URL, cfg.Timeout), nil
}
