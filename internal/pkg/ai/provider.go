// Package ai turns a staged diff into a suggested commit message. It holds
// the CLI side client that talks to the proxy and the upstream completers
// the proxy uses to reach a language model.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// FallbackMessage is used whenever a backend produces no usable text.
const FallbackMessage = "chore: update"

// Style selects the tone of the suggested message.
type Style string

const (
	StyleConventional Style = "conventional"
	StyleCasual       Style = "casual"
	StyleFormal       Style = "formal"
)

// DefaultStyle is used when no style is chosen.
const DefaultStyle = StyleConventional

// Styles lists the recognised styles in display order.
var Styles = []Style{StyleConventional, StyleCasual, StyleFormal}

// ParseStyle maps s onto a recognised style, case-insensitively.
func ParseStyle(s string) (Style, error) {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if st.IsKnown() {
		return st, nil
	}
	return "", fmt.Errorf("unknown style %q (want conventional, casual or formal)", s)
}

// IsKnown reports whether s is one of Styles.
func (s Style) IsKnown() bool {
	switch s {
	case StyleConventional, StyleCasual, StyleFormal:
		return true
	}
	return false
}

// SuggestRequest is one request for a message suggestion.
type SuggestRequest struct {
	Diff  string
	Style Style
}

// Suggester produces a commit message suggestion for a diff.
// Each call is independent; nothing about earlier suggestions is sent.
type Suggester interface {
	Suggest(ctx context.Context, req *SuggestRequest) (string, error)
	Name() string
}

// Completer sends one system and user prompt pair to a language model and
// returns its raw text.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Name() string
}

// ProviderConfig contains configuration for an upstream completer.
type ProviderConfig struct {
	APIKey      string
	Model       string
	Endpoint    string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// UpstreamError reports a non-success reply from the language model API.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

// Error renders as "<Provider> error <status>: <body>".
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.StatusCode, e.Body)
}

// NormalizeMessage trims text and substitutes FallbackMessage when nothing is left.
func NormalizeMessage(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackMessage
	}
	return text
}
