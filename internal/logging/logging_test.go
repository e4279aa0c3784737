package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wikifeed/internal/config"
)

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "json", slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("Batch complete", "items", 7)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "Batch complete" || rec["items"] != float64(7) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestTextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "text", slog.LevelDebug))

	logger.Warn("Giving up on item", "attempts", 3)
	if !strings.Contains(buf.String(), "Giving up on item") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wikifeed.log")
	logger, closer, err := New(config.LogConfig{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("hello")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("expected record in log file, got %q", data)
	}
}

func TestNewRejectsLevel(t *testing.T) {
	if _, _, err := New(config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("expected error for invalid level")
	}
}
