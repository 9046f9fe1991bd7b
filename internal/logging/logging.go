// Package logging provides structured logging setup for guestbook.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup initializes the default slog logger on stdout.
// Dev mode uses human-readable text; prod uses JSON.
func Setup(devMode bool) {
	SetupTo(os.Stdout, devMode)
}

// SetupTo is Setup with an explicit destination. The CLI logs to stderr so
// that command output stays parseable.
func SetupTo(w io.Writer, devMode bool) {
	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	slog.SetDefault(slog.New(handler))
}
