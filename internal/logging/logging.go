package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

func New(format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}

// Open builds a logger writing to the given file path, appending across
// invocations. An empty path logs to stderr; the returned closer is then a
// no-op.
func Open(format, path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return New(format, os.Stderr), nopCloser{}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return New(format, f), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
