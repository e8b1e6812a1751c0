// Package security provides secret handling helpers for CommitCoach.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// openAIKeyPattern matches classic and project scoped OpenAI keys.
var openAIKeyPattern = regexp.MustCompile(`^sk-[a-zA-Z0-9_-]{20,}$`)

// MaskAPIKey masks an API key, showing only the last 4 characters.
func MaskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// ValidateAPIKeyFormat checks that apiKey looks usable for provider.
// The proxy only warns on a mismatch since compatible gateways issue other formats.
func ValidateAPIKeyFormat(provider, apiKey string) error {
	if provider == "ollama" {
		return nil
	}

	if apiKey == "" {
		return fmt.Errorf("API key is required for %s provider", provider)
	}
	if len(apiKey) < 20 {
		return fmt.Errorf("API key appears to be invalid (too short)")
	}
	if provider == "openai" && !openAIKeyPattern.MatchString(apiKey) {
		return fmt.Errorf("API key format appears invalid for %s provider (expected format: sk-...)", provider)
	}

	return nil
}

var sanitizePatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`), "sk-****"},
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`), "Bearer ****"},
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey|api_secret|secret[_-]?key)\s*[:=]\s*["']?[a-zA-Z0-9._-]+["']?`), "$1=****"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*["']?[^\s"']+["']?`), "$1=****"},
}

// SanitizeForLogging masks API keys, bearer tokens and passwords in s.
func SanitizeForLogging(s string) string {
	for _, p := range sanitizePatterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// FirstUseWarning returns the notice shown before the first diff is sent to server.
func FirstUseWarning(server string) string {
	return fmt.Sprintf(`
IMPORTANT: CommitCoach sends your staged git diff to %s,
which forwards it to a language model provider to draft a commit message.

Your code changes will leave this machine. Please ensure you:

1. Do not stage secrets (API keys, passwords, tokens)
2. Review your staged changes before running CommitCoach
3. Point --server at a proxy you run yourself for sensitive projects

`, server)
}

// FirstUseAcknowledgment is the message shown after the user acknowledges the warning.
const FirstUseAcknowledgment = "Thanks. This notice will not be shown again."
