package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const requestIDKey = "request_id"

var defaultLogger *slog.Logger

func init() {
	defaultLogger = New(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// New builds a JSON logger writing to w at the given level (debug, info, warn, error).
// Unknown or empty levels fall back to debug.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: false,
	}))
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// SetDefault replaces the process-wide logger used when a context carries none.
func SetDefault(l *slog.Logger) {
	if l != nil {
		defaultLogger = l
	}
}

type contextKey struct{}

var loggerKey = &contextKey{}

// FromContext returns the logger from context, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

// WithContext returns a new context that carries the given logger.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRequestID returns a new context whose logger includes the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	l := FromContext(ctx).With(requestIDKey, id)
	return WithContext(ctx, l)
}

// Errorf logs at error level with format.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).ErrorContext(ctx, fmt.Sprintf(format, args...))
}

// Infof logs at info level with format.
func Infof(ctx context.Context, format string, args ...interface{}) {
	FromContext(ctx).InfoContext(ctx, fmt.Sprintf(format, args...))
}

// Error logs with error level. args are alternating key-value pairs (e.g. "error", err).
func Error(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).ErrorContext(ctx, message, args...)
}

// Info logs with info level. args are alternating key-value pairs.
func Info(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).InfoContext(ctx, message, args...)
}

// Debug logs with debug level. args are alternating key-value pairs.
func Debug(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).DebugContext(ctx, message, args...)
}

// Warn logs with warn level. args are alternating key-value pairs.
func Warn(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).WarnContext(ctx, message, args...)
}
