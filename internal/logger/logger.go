package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a slog.Logger configured based on the application environment:
// JSON at Info for deployed environments, a colored console handler at Debug
// for development.
func New(env string) *slog.Logger {
	switch env {
	case "production", "staging":
		return slog.New(slog.NewJSONHandler(defaultWriter(), &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	default:
		return slog.New(newConsoleHandler(defaultWriter(), slog.LevelDebug))
	}
}

func defaultWriter() io.Writer {
	return os.Stdout
}
