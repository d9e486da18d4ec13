package logging

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger tagged with the service name. Dev gets
// debug level so retry and degrade chatter is visible locally.
func New(service string, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", service)
}
