// Package logging sets up the shared slog logger for the command-line tools.
package logging

import (
	"bytes"
	"io"
	"log/slog"
	"os"
)

// New returns a text logger on stderr and installs it as the slog default,
// so the stdlib log package routes through the same handler.
func New(debug bool) *slog.Logger {
	return NewWriter(os.Stderr, debug)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // include file:line in debug mode
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// CRLF rewrites line endings for terminals in raw mode, where a bare LF
// doesn't return the cursor.
func CRLF(w io.Writer) io.Writer {
	return crlfWriter{w}
}

type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
