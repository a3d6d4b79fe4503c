package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production always emits JSON for the
// log pipeline; elsewhere LOG_FORMAT selects json or a readable text handler.
func NewLogger(cfg *Config) *slog.Logger {
	return slog.New(newLogHandler(os.Stdout, cfg)).With(slog.String("app", "meridian"))
}

func newLogHandler(w io.Writer, cfg *Config) slog.Handler {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
