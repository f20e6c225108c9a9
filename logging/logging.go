// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// Configure installs a tint handler writing to w as the default slog logger. Debug
// enables DEBUG level and source locations.
func Configure(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	h := tint.NewHandler(w, &tint.Options{
		Level:      level,
		AddSource:  debug,
		TimeFormat: time.DateTime,
	})

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}
