// Package logging configures colored structured logging with tint.
//
// The level comes from the LOG_LEVEL environment variable when set, then from
// the configured level, and defaults to info.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs a tint handler on stderr as the default slog logger.
func Setup(configured string) {
	SetupWriter(os.Stderr, configured)
}

// SetupWriter installs a tint handler writing to w.
func SetupWriter(w io.Writer, configured string) {
	level := ParseLevel(configured)
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = ParseLevel(env)
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	))
}

// ParseLevel maps debug, warn and error to their slog levels; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
