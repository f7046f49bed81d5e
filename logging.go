package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
}

// newLogger writes to path when set, otherwise to fallback. A nil fallback
// discards, which is what the TUI wants since it owns the terminal.
func newLogger(path string, level slog.Level, fallback io.Writer) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	opts := &slog.HandlerOptions{Level: level}

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, noop, fmt.Errorf("open log file %s: %w", path, err)
		}
		return slog.New(slog.NewTextHandler(f, opts)), f.Close, nil
	}
	if fallback == nil {
		return discardLogger(), noop, nil
	}
	return slog.New(slog.NewTextHandler(fallback, opts)), noop, nil
}
