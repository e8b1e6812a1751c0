// Package processor prepares the staged diff before it is sent for a suggestion.
package processor

import (
	"context"
	"unicode/utf8"
)

// Size ceiling for the diff sent to the backend.
const (
	DefaultMaxChars = 20_000
	// TruncationMarker is appended to a diff cut at the ceiling.
	TruncationMarker = "\n...[truncated]"
)

// ProcessedDiff contains the result of diff processing.
type ProcessedDiff struct {
	// Text is the diff as it will be sent.
	Text string
	// OriginalChars is the character count before truncation.
	OriginalChars int
	Truncated     bool
}

// DiffProcessor defines the interface for diff processing.
type DiffProcessor interface {
	Process(ctx context.Context, diff string) (*ProcessedDiff, error)
}

// ProcessorConfig holds configuration for the diff processor.
type ProcessorConfig struct {
	// MaxChars is the number of characters kept before the marker.
	MaxChars int
}

// DefaultProcessor implements the DiffProcessor interface.
type DefaultProcessor struct {
	config ProcessorConfig
}

// NewProcessor creates a new DefaultProcessor with default configuration.
func NewProcessor() *DefaultProcessor {
	return NewProcessorWithConfig(ProcessorConfig{})
}

// NewProcessorWithConfig creates a new DefaultProcessor with custom configuration.
func NewProcessorWithConfig(config ProcessorConfig) *DefaultProcessor {
	if config.MaxChars <= 0 {
		config.MaxChars = DefaultMaxChars
	}
	return &DefaultProcessor{config: config}
}

// Process truncates diff to the configured ceiling. The diff is otherwise
// passed through untouched.
func (p *DefaultProcessor) Process(ctx context.Context, diff string) (*ProcessedDiff, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, truncated := Truncate(diff, p.config.MaxChars)
	return &ProcessedDiff{
		Text:          text,
		OriginalChars: utf8.RuneCountInString(diff),
		Truncated:     truncated,
	}, nil
}

// Truncate keeps the first limit characters of s and appends
// TruncationMarker when s is longer than limit. Characters are runes, so a
// multi-byte sequence is never split.
func Truncate(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}

	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + TruncationMarker, true
		}
		n++
	}
	return s, false
}
