package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. JSON output for production, text
// for dev mode where humans read the stream.
func New(dev bool) *slog.Logger {
	var handler slog.Handler
	if dev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}
