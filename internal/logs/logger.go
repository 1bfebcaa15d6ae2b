// Package logs wires the process-wide structured logger.
package logs

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs a JSON slog handler as the process default and returns the
// logger. Every record carries the service name so the three binaries can
// share one log stream.
func Init(service, level string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(level)})
	logger := slog.New(h).With("service", service)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(l string) slog.Level {
	switch strings.ToLower(l) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
