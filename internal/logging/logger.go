package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"

	"hareonna/internal/config"
)

// New builds the process logger: colored text for dev builds, JSON otherwise.
// Logs go to w so that command output on stdout stays clean.
func New(cfg config.Config, w io.Writer, version string, appName string) *slog.Logger {
	if version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
