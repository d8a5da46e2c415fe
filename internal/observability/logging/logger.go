// Package logging builds the structured logger shared by the API, indexer,
// and fetcher binaries. Output is JSON on stdout with a fixed service
// attribute, so one request can be traced across all three.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger returns a logger tagged with the service name. Debug level
// additionally records source positions; the serving default is info.
func NewJSONLogger(service, level string) *slog.Logger {
	parsed := parseLevel(level)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     parsed,
		AddSource: parsed == slog.LevelDebug,
	})
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
