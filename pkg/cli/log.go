package cli

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger writing to w. verbose forces debug level.
func NewLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		l = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}
