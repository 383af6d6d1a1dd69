package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"segskip/internal/config"
	"segskip/internal/logging"
)

func TestNewFromConfigWritesJSONFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("segments loaded", logging.String(logging.FieldVideoID, "dQw4w9WgXcQ"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "segskip.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log file is not JSON: %v\n%s", err, data)
	}
	if record["msg"] != "segments loaded" || record[logging.FieldVideoID] != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected record: %v", record)
	}
	if record["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", record["level"])
	}
}

func TestConsoleLoggerFormatsComponent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	component := logging.NewComponentLogger(logger, "session")
	component.Info("entered ad state", logging.Int("indicators", 2), logging.String("reason", "two markers"))
	component.Debug("hidden")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "INFO session: entered ad state") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "indicators=2") || !strings.Contains(line, `reason="two markers"`) {
		t.Fatalf("expected formatted attrs, got %q", line)
	}
	if strings.Contains(line, "hidden") {
		t.Fatal("debug record should be filtered at info level")
	}
	if strings.Contains(line, "component=") {
		t.Fatal("component should be rendered as prefix, not attr")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "segment fetch failed", "segment_fetch_failed",
		logging.String(logging.FieldImpact, "no segments will be skipped"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "segment_fetch_failed" {
		t.Fatalf("missing event type: %v", record)
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatalf("missing error hint: %v", record)
	}
	if record[logging.FieldImpact] != "no segments will be skipped" {
		t.Fatalf("caller impact should win: %v", record)
	}
}

func TestWithContextAddsSessionAndVideo(t *testing.T) {
	ctx := logging.WithVideoID(logging.WithSessionID(context.Background(), "s-1"), "vid")
	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected two fields, got %v", fields)
	}
	if fields[0].Key != logging.FieldSessionID || fields[1].Value.String() != "vid" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if logging.ContextFields(context.Background()) != nil {
		t.Fatal("expected no fields on bare context")
	}
	if logging.WithContext(ctx, nil) == nil {
		t.Fatal("expected logger")
	}
}
