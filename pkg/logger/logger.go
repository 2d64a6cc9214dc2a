package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Config contains logger configuration options.
type Config struct {
	// Level is the minimum level to log: debug, info, warn or error.
	Level string
	// JSON enables JSON formatting instead of text.
	JSON bool
	// Output is where logs are written (defaults to os.Stderr).
	Output io.Writer
	// AddSource adds source code information to log records.
	AddSource bool
}

// DefaultConfig returns a default logger configuration. Text output is the
// default because the primary binary is an interactive terminal client.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		JSON:   false,
		Output: os.Stderr,
	}
}

// Logger wraps slog for structured logging.
type Logger struct {
	*slog.Logger
	config Config
}

// global is the package-level logger instance.
var global *Logger

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a new logger with the given configuration.
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	logger := &Logger{
		Logger: slog.New(handler),
		config: config,
	}

	if global == nil {
		global = logger
	}

	return logger
}

// SetGlobal sets the global logger instance.
func SetGlobal(logger *Logger) {
	global = logger
}

// GetGlobal returns the global logger instance.
func GetGlobal() *Logger {
	if global == nil {
		global = New(DefaultConfig())
	}
	return global
}

// LogError logs an error with additional context attributes.
func (l *Logger) LogError(err error, msg string, args ...any) {
	l.Error(msg, append([]any{"error", err.Error()}, args...)...)
}

// WithComponent returns a logger scoped to a widget component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.With("component", name), config: l.config}
}

// WithUserID returns a logger carrying the active user id.
func (l *Logger) WithUserID(userID string) *Logger {
	if userID == "" {
		return l
	}
	return &Logger{Logger: l.With("user_id", userID), config: l.config}
}

// WithRequestID returns a logger carrying a request id.
func (l *Logger) WithRequestID(requestID string) *Logger {
	if requestID == "" {
		return l
	}
	return &Logger{Logger: l.With("request_id", requestID), config: l.config}
}

// LogRequest logs details about a completed HTTP request.
func (l *Logger) LogRequest(method, path string, status int, latency time.Duration) {
	l.Info("request completed",
		"method", method,
		"path", path,
		"status", status,
		"latency_ms", latency.Milliseconds(),
	)
}
