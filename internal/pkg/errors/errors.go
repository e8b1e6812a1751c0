// Package errors provides error types and logging utilities for CommitCoach.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrorCode represents the category of an error.
type ErrorCode int

const (
	// Outcomes that are not failures (Exit Code 0)
	ErrNoStagedChanges ErrorCode = iota + 1
	ErrCancelled

	// User errors (Exit Code 1)
	ErrInvalidConfig ErrorCode = iota + 98
	ErrMissingAPIKey
	ErrInvalidArguments

	// System errors (Exit Code 2)
	ErrGitCommandFailed ErrorCode = iota + 195
	ErrCommitFailed
	ErrFileSystemError

	// External errors (Exit Code 3)
	ErrBackendFailed ErrorCode = iota + 292
	ErrNetworkError
	ErrRateLimited
	ErrTimeout
)

// ExitCode returns the appropriate exit code for an error code.
func (c ErrorCode) ExitCode() int {
	switch {
	case c > 0 && c < 100:
		return 0 // Informational outcomes
	case c >= 100 && c < 200:
		return 1 // User errors
	case c >= 200 && c < 300:
		return 2 // System errors
	case c >= 300:
		return 3 // External errors
	default:
		return 1
	}
}

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNoStagedChanges:
		return "NoStagedChanges"
	case ErrCancelled:
		return "Cancelled"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrMissingAPIKey:
		return "MissingAPIKey"
	case ErrInvalidArguments:
		return "InvalidArguments"
	case ErrGitCommandFailed:
		return "ToolInvocation"
	case ErrCommitFailed:
		return "CommitFailed"
	case ErrFileSystemError:
		return "FileSystemError"
	case ErrBackendFailed:
		return "BackendFailed"
	case ErrNetworkError:
		return "NetworkError"
	case ErrRateLimited:
		return "RateLimited"
	case ErrTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// AppError represents an application error with context.
type AppError struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Context    map[string]interface{}
	Suggestion string
	// StatusCode is the HTTP status reported by the backend, zero when the
	// request never got a response.
	StatusCode int
	// Body is the raw response body returned alongside StatusCode.
	Body       string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with context.
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// GetExitCode returns the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code.ExitCode()
	}
	return 1 // Default to user error
}

// Common error constructors with suggestions

// NewNoStagedChangesError creates the outcome reported when the index is empty.
func NewNoStagedChangesError() *AppError {
	return &AppError{
		Code:       ErrNoStagedChanges,
		Message:    "No staged changes. Run `git add` first.",
		Suggestion: "Use 'git add <files>' to stage changes before asking for a suggestion",
	}
}

// NewCancelledError creates the outcome reported when the user cancels.
func NewCancelledError() *AppError {
	return &AppError{
		Code:    ErrCancelled,
		Message: "cancelled, nothing committed",
	}
}

// NewMissingAPIKeyError creates an error for missing API key.
func NewMissingAPIKeyError(provider string) *AppError {
	return &AppError{
		Code:       ErrMissingAPIKey,
		Message:    fmt.Sprintf("API key is required for %s upstream", provider),
		Suggestion: "Set the OPENAI_API_KEY environment variable or upstream.api_key in the proxy config file",
	}
}

// NewInvalidConfigError creates an error for invalid configuration.
func NewInvalidConfigError(message string) *AppError {
	return &AppError{
		Code:       ErrInvalidConfig,
		Message:    message,
		Suggestion: "Run 'commitcoach config init' to create a valid configuration file",
	}
}

// NewInvalidArgumentsError creates an error for bad command line input.
func NewInvalidArgumentsError(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidArguments,
		Message: message,
	}
}

// NewGitError creates an error for git command failures. The message is the
// tool's own diagnostic when it produced one.
func NewGitError(err error, output string) *AppError {
	output = strings.TrimSpace(output)
	appErr := &AppError{
		Code:    ErrGitCommandFailed,
		Message: "git diff failed",
		Cause:   err,
	}
	if output != "" {
		appErr.Message = output
		appErr.Context = map[string]interface{}{
			"output": output,
		}
	}
	return appErr
}

// NewCommitError creates an error for a rejected or failed commit.
func NewCommitError(err error, output string) *AppError {
	output = strings.TrimSpace(output)
	appErr := &AppError{
		Code:       ErrCommitFailed,
		Message:    "git commit failed",
		Cause:      err,
		Suggestion: "Check your git hooks and identity settings, then commit again",
	}
	if output != "" {
		appErr.Message = output
		appErr.Context = map[string]interface{}{
			"output": output,
		}
	}
	return appErr
}

// NewBackendError creates an error for a non-success reply from the proxy.
func NewBackendError(statusCode int, body string) *AppError {
	appErr := &AppError{
		Code:       ErrBackendFailed,
		Message:    fmt.Sprintf("Proxy error %d: %s", statusCode, body),
		StatusCode: statusCode,
		Body:       body,
		Suggestion: "Check the --server address and that the proxy is running",
	}
	if statusCode == http.StatusTooManyRequests {
		appErr.Code = ErrRateLimited
		appErr.Suggestion = "Please wait and try again later"
	}
	return appErr
}

// NewNetworkError creates an error for network failures.
func NewNetworkError(err error) *AppError {
	return &AppError{
		Code:       ErrNetworkError,
		Message:    "network error occurred",
		Cause:      err,
		Suggestion: "Please check your network connection and the --server address",
	}
}

// NewTimeoutError creates an error for timeouts.
func NewTimeoutError(err error) *AppError {
	return &AppError{
		Code:       ErrTimeout,
		Message:    "request timed out",
		Cause:      err,
		Suggestion: "Increase --timeout or try again later",
	}
}

// WithRetryAfter records the server's Retry-After hint on a rate limit error.
func (e *AppError) WithRetryAfter(retryAfter time.Duration) *AppError {
	e.RetryAfter = retryAfter
	if e.Code == ErrRateLimited && retryAfter > 0 {
		e.Suggestion = fmt.Sprintf("Please wait %v and try again", retryAfter)
	}
	return e
}

// ParseRetryAfterHeader parses the Retry-After header value.
// It handles both seconds (integer) and HTTP-date formats.
func ParseRetryAfterHeader(header string) time.Duration {
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
	}

	return 0
}

// FormatError formats an error for user display.
// API keys and other sensitive data are automatically masked.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(appErr.Message))

		if appErr.Cause != nil {
			sb.WriteString("\n  Cause: ")
			sb.WriteString(SanitizeErrorMessage(appErr.Cause.Error()))
		}

		if appErr.Suggestion != "" {
			sb.WriteString("\n  Suggestion: ")
			sb.WriteString(appErr.Suggestion)
		}
	} else {
		sb.WriteString("Error: ")
		sb.WriteString(SanitizeErrorMessage(err.Error()))
	}

	return sb.String()
}

// FormatErrorVerbose formats an error with full details for verbose mode.
func FormatErrorVerbose(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder

	appErr := GetAppError(err)
	if appErr != nil {
		sb.WriteString(fmt.Sprintf("Error [%s]: %s\n", appErr.Code.String(), SanitizeErrorMessage(appErr.Message)))

		if appErr.Cause != nil {
			sb.WriteString(fmt.Sprintf("  Cause: %v\n", SanitizeErrorMessage(appErr.Cause.Error())))
			sb.WriteString("  Error chain:\n")
			printErrorChain(&sb, appErr.Cause, 2)
		}

		if appErr.StatusCode > 0 {
			sb.WriteString(fmt.Sprintf("  Status: %d\n", appErr.StatusCode))
		}

		if len(appErr.Context) > 0 {
			sb.WriteString("  Context:\n")
			for k, v := range appErr.Context {
				sb.WriteString(fmt.Sprintf("    %s: %v\n", k, SanitizeErrorMessage(fmt.Sprintf("%v", v))))
			}
		}

		if appErr.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", appErr.Suggestion))
		}

		if appErr.RetryAfter > 0 {
			sb.WriteString(fmt.Sprintf("  Retry after: %v\n", appErr.RetryAfter))
		}
	} else {
		sb.WriteString(fmt.Sprintf("Error: %v\n", SanitizeErrorMessage(err.Error())))
		sb.WriteString("  Error chain:\n")
		printErrorChain(&sb, err, 2)
	}

	return sb.String()
}

// printErrorChain prints the error chain with indentation.
func printErrorChain(sb *strings.Builder, err error, indent int) {
	if err == nil {
		return
	}

	prefix := strings.Repeat("  ", indent)
	errMsg := SanitizeErrorMessage(err.Error())
	sb.WriteString(fmt.Sprintf("%s- %T: %v\n", prefix, err, errMsg))

	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		printErrorChain(sb, unwrapped, indent+1)
	}
}

// SanitizeErrorMessage masks any API keys or sensitive data in error messages.
func SanitizeErrorMessage(msg string) string {
	return apiKeyPattern.ReplaceAllStringFunc(msg, MaskAPIKey)
}

// apiKeyPattern matches OpenAI style secret keys, including project keys.
var apiKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`)
