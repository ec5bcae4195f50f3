package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger tagged with the service name and installs it as
// the slog default. LOG_LEVEL overrides the env-derived level.
func New(service, env string) *slog.Logger {
	return newLogger(os.Stdout, service, env, os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, service, env, level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level, env),
	})).With("service", service, "env", env)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level, env string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
