package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"playscribe/internal/config"
	"playscribe/internal/logging"
	"playscribe/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("catalog opened")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "playscribe.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "catalog opened") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerLiftsSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-subject.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithTopic(services.WithCycleID(context.Background(), "abc"), "Chrono Trigger")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "discovery"))
	logger.Info("page fetched", logging.Int("candidates", 20))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, `discovery · Chrono Trigger: page fetched`) {
		t.Fatalf("expected subject prefix, got %q", line)
	}
	if !strings.Contains(line, "cycle_id=abc") || !strings.Contains(line, "candidates=20") {
		t.Fatalf("expected structured fields, got %q", line)
	}
	if strings.Contains(line, "topic=") {
		t.Fatalf("expected topic to be lifted out of fields, got %q", line)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "members unavailable", "playlist_members_failed",
		logging.String(logging.FieldPlaylistID, "PL1"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
	if entry[logging.FieldEventType] != "playlist_members_failed" {
		t.Fatalf("expected event type, got %v", entry[logging.FieldEventType])
	}
	for _, key := range []string{"ts", logging.FieldErrorHint, logging.FieldImpact, logging.FieldPlaylistID} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected %q in %v", key, entry)
		}
	}
}

func TestWarnWithContextKeepsCallerFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "transcript check deferred", "transcription_deferred",
		logging.String(logging.FieldErrorHint, "run playlists recheck"),
		logging.String(logging.FieldImpact, "playlist stays unknown"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if n := strings.Count(string(content), `"`+logging.FieldErrorHint+`"`); n != 1 {
		t.Fatalf("expected one error hint, found %d in %s", n, content)
	}
	if n := strings.Count(string(content), `"`+logging.FieldImpact+`"`); n != 1 {
		t.Fatalf("expected one impact, found %d in %s", n, content)
	}
	var entry map[string]any
	if err := json.Unmarshal(content, &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if entry[logging.FieldErrorHint] != "run playlists recheck" || entry[logging.FieldImpact] != "playlist stays unknown" {
		t.Fatalf("caller fields replaced: %v", entry)
	}
	if entry[logging.FieldEventType] != "transcription_deferred" {
		t.Fatalf("expected injected event type, got %v", entry[logging.FieldEventType])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFormatSubject(t *testing.T) {
	cases := []struct {
		component, topic, playlist, want string
	}{
		{"workflow", "", "", "workflow"},
		{"discovery", "Chrono Trigger", "", "discovery · Chrono Trigger"},
		{"advance", "Chrono Trigger", "PL1", "advance · Chrono Trigger (PL1)"},
		{"", "", "PL1", "Playlist PL1"},
	}
	for _, tc := range cases {
		if got := logging.FormatSubject(tc.component, tc.topic, tc.playlist); got != tc.want {
			t.Fatalf("FormatSubject(%q,%q,%q)=%q want %q", tc.component, tc.topic, tc.playlist, got, tc.want)
		}
	}
}
