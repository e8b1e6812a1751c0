package ai

import (
	"fmt"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	// DefaultOllamaEndpoint is the default Ollama server URL.
	DefaultOllamaEndpoint = "http://localhost:11434"

	// DefaultOllamaModel is the default Ollama model.
	DefaultOllamaModel = "llama3.2"
)

// NewOllamaCompleter creates a completer backed by a local or remote Ollama server.
func NewOllamaCompleter(config ProviderConfig) (*LangChainCompleter, error) {
	if config.Endpoint == "" {
		config.Endpoint = DefaultOllamaEndpoint
	}
	if config.Model == "" {
		config.Model = DefaultOllamaModel
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = config.Timeout
	httpClient.Transport = &recordingTransport{base: httpClient.Transport}

	llm, err := ollama.New(
		ollama.WithServerURL(config.Endpoint),
		ollama.WithModel(config.Model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return NewLangChainCompleter(llm, config, "ollama", "Ollama"), nil
}
