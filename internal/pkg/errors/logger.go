package errors

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	// LogLevelError logs only errors.
	LogLevelError LogLevel = iota
	// LogLevelWarn logs warnings and errors.
	LogLevelWarn
	// LogLevelInfo logs info, warnings, and errors.
	LogLevelInfo
	// LogLevelDebug logs everything including debug messages.
	LogLevelDebug
)

// String returns the string representation of LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Logger wraps a zerolog logger with the verbose switch used by the CLI.
type Logger struct {
	mu      sync.Mutex
	output  io.Writer
	level   LogLevel
	verbose bool
	json    bool
	zl      zerolog.Logger
}

// Global logger instance
var defaultLogger = NewLogger(os.Stderr, false)

// NewLogger creates a new console logger. Verbose lowers the level to debug.
func NewLogger(output io.Writer, verbose bool) *Logger {
	l := &Logger{output: output}
	l.setVerbose(verbose)
	return l
}

// NewJSONLogger creates a logger that writes one JSON object per line.
func NewJSONLogger(output io.Writer, level LogLevel) *Logger {
	l := &Logger{output: output, json: true, level: level}
	l.rebuild()
	return l
}

func (l *Logger) setVerbose(verbose bool) {
	l.verbose = verbose
	if verbose {
		l.level = LogLevelDebug
	} else {
		l.level = LogLevelError
	}
	l.rebuild()
}

// rebuild must be called with mu held or before the logger is shared.
func (l *Logger) rebuild() {
	var w io.Writer = l.output
	if !l.json {
		w = zerolog.ConsoleWriter{
			Out:        l.output,
			NoColor:    true,
			TimeFormat: "15:04:05",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%s:", i))
			},
		}
	}
	l.zl = zerolog.New(w).Level(l.level.zerolog()).With().Timestamp().Logger()
}

// Zerolog returns the underlying logger for structured events.
func (l *Logger) Zerolog() zerolog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.zl
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(verbose bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.setVerbose(verbose)
}

// IsVerbose returns whether verbose logging is enabled.
func IsVerbose() bool {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	return defaultLogger.verbose
}

// SetOutput sets the output writer for the logger.
func SetOutput(w io.Writer) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.output = w
	defaultLogger.rebuild()
}

// SetJSON switches the default logger between console and JSON output.
func SetJSON(enabled bool) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.json = enabled
	defaultLogger.rebuild()
}

// SetLevel overrides the level chosen by SetVerbose.
func SetLevel(level LogLevel) {
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.level = level
	defaultLogger.verbose = level == LogLevelDebug
	defaultLogger.rebuild()
}

// ParseLogLevel maps a config value onto a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarn
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// Zerolog returns the default structured logger.
func Zerolog() zerolog.Logger {
	return defaultLogger.Zerolog()
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	zl := l.Zerolog()
	var ev *zerolog.Event
	switch level {
	case LogLevelError:
		ev = zl.Error()
	case LogLevelWarn:
		ev = zl.Warn()
	case LogLevelInfo:
		ev = zl.Info()
	default:
		ev = zl.Debug()
	}
	ev.Msg(SanitizeErrorMessage(fmt.Sprintf(format, args...)))
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LogLevelError, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LogLevelWarn, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LogLevelInfo, format, args...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogLevelDebug, format, args...)
}

// LogAPIRequest logs an outgoing completion request at debug level.
func (l *Logger) LogAPIRequest(provider, endpoint, model string, promptLength int) {
	zl := l.Zerolog()
	zl.Debug().
		Str("provider", provider).
		Str("endpoint", endpoint).
		Str("model", model).
		Int("prompt_length", promptLength).
		Msg("API request")
}

// LogAPIResponse logs a completion response at debug level.
func (l *Logger) LogAPIResponse(provider string, statusCode int, responseLength int, duration time.Duration) {
	zl := l.Zerolog()
	zl.Debug().
		Str("provider", provider).
		Int("status", statusCode).
		Int("response_length", responseLength).
		Dur("duration", duration).
		Msg("API response")
}

// Package-level logging functions using the default logger

// Error logs an error message.
func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

// LogAPIRequest logs an API request in verbose mode.
func LogAPIRequest(provider, endpoint, model string, promptLength int) {
	defaultLogger.LogAPIRequest(provider, endpoint, model, promptLength)
}

// LogAPIResponse logs an API response in verbose mode.
func LogAPIResponse(provider string, statusCode int, responseLength int, duration time.Duration) {
	defaultLogger.LogAPIResponse(provider, statusCode, responseLength, duration)
}

// MaskAPIKey masks an API key for safe logging, showing only the last 4 characters.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(apiKey)-4) + apiKey[len(apiKey)-4:]
}
