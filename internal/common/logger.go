package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Fields represents structured logging fields.
type Fields map[string]any

// Log formats accepted by SetupLogger.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// ParseLevel converts a configured level name into a slog level.
// Names are case-insensitive; empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: invalid log level: %s", ErrInvalidConfig, level)
}

// SetupLogger installs the default logger on stderr.
func SetupLogger(level slog.Level, format string) error {
	return SetupLoggerTo(os.Stderr, level, format)
}

// SetupLoggerTo installs the default logger writing to w in the given format.
func SetupLoggerTo(w io.Writer, level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case LogFormatConsole, "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("%w: invalid log format: %s", ErrInvalidConfig, format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// LogError logs err at error level with the given fields.
func LogError(err error, msg string, fields Fields) {
	logFields(slog.LevelError, msg, fields, slog.String("error", err.Error()))
}

// LogInfo logs msg at info level with the given fields.
func LogInfo(msg string, fields Fields) {
	logFields(slog.LevelInfo, msg, fields)
}

func logFields(level slog.Level, msg string, fields Fields, extra ...slog.Attr) {
	attrs := make([]slog.Attr, 0, len(fields)+len(extra))
	attrs = append(attrs, extra...)
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	slog.LogAttrs(context.Background(), level, msg, attrs...)
}
