// Package logging builds the process logger. The terminal belongs to the UI,
// so records go to a file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"wikifeed/internal/config"
)

// New returns a logger writing to cfg.File (stderr when empty) and the closer
// for the underlying file.
func New(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	var w io.WriteCloser = nopCloser{os.Stderr}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil && cfg.Level != "" {
		w.Close()
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	return slog.New(NewHandler(w, cfg.Format, level)), w, nil
}

// NewHandler returns a JSON handler, or a charm text handler for "text".
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if format == "text" {
		return charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Level:           charmlog.Level(level),
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
