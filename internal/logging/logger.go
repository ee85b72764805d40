// Package logging provides structured logging for libcmd.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a new structured logger with the specified format and
// debug level. Format should be "json" or "text". The debug level follows
// the runner convention: 0 logs warnings and errors only, 1 adds run
// diagnostics (info), 2 or higher enables full debug output.
func NewLogger(format string, debugLevel int) *slog.Logger {
	return NewLoggerWithWriter(os.Stderr, format, debugLevel)
}

// NewLoggerWithWriter creates a logger that writes to a custom writer.
// Useful for testing.
func NewLoggerWithWriter(w io.Writer, format string, debugLevel int) *slog.Logger {
	level := LevelFromDebug(debugLevel)

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location for debug level
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		// Default to text for a CLI-facing tool
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// LevelFromDebug maps an integer debug level to a slog.Level.
func LevelFromDebug(debugLevel int) slog.Level {
	switch {
	case debugLevel <= 0:
		return slog.LevelWarn
	case debugLevel == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// SetDefault sets the default logger for the slog package.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
