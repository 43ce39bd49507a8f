package app

import (
	"io"
	"log/slog"

	"github.com/specialistvlad/componentry/internal/config"
)

// newLogger builds the application's logger from a validated config. It does
// not set the global logger. Every record carries the app attribute so logs
// from several engines in one process can be told apart.
func newLogger(cfg *config.Config, outW io.Writer) *slog.Logger {
	// NewConfig already rejected unknown levels.
	level, _ := config.ParseLevel(cfg.LogLevel)
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler).With("app", "componentry")
}
