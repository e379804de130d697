package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"playscribe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PLAYSCRIBE_DATA_DIR", "")
	t.Setenv("PLAYSCRIBE_TOPICS_FILE", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "playscribe")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.TranscriptsDir != filepath.Join(wantData, "transcripts") {
		t.Fatalf("unexpected transcripts dir: %q", cfg.Paths.TranscriptsDir)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Topics.RulesFile != filepath.Join(tempHome, ".config", "playscribe", "topics.toml") {
		t.Fatalf("unexpected rules file: %q", cfg.Topics.RulesFile)
	}
	if cfg.Discovery.MaxCandidates != 980 {
		t.Fatalf("expected candidate cap 980, got %d", cfg.Discovery.MaxCandidates)
	}
	if cfg.Discovery.MaxAttempts != 5 {
		t.Fatalf("expected 5 discovery attempts, got %d", cfg.Discovery.MaxAttempts)
	}
	if cfg.PageDelay() != 5*time.Second {
		t.Fatalf("unexpected page delay: %s", cfg.PageDelay())
	}
	if cfg.IdleInterval() != time.Minute {
		t.Fatalf("unexpected idle interval: %s", cfg.IdleInterval())
	}
	if cfg.Discovery.SearchPrefix != "lets play" {
		t.Fatalf("unexpected search prefix: %q", cfg.Discovery.SearchPrefix)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "catalog.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.TranscriptsDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist", dir)
		}
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PLAYSCRIBE_DATA_DIR", "")
	t.Setenv("PLAYSCRIBE_TOPICS_FILE", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"data_dir":        "~/catalog",
			"transcripts_dir": "~/archive",
		},
		"discovery": map[string]any{
			"search_prefix":      "  longplay   of ",
			"page_delay_seconds": 0,
			"base_url":           "http://127.0.0.1:9999/",
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "catalog") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.TranscriptsDir != filepath.Join(tempHome, "archive") {
		t.Fatalf("unexpected transcripts dir: %q", cfg.Paths.TranscriptsDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, "catalog", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Discovery.SearchPrefix != "longplay of" {
		t.Fatalf("expected collapsed search prefix, got %q", cfg.Discovery.SearchPrefix)
	}
	if cfg.PageDelay() != 0 {
		t.Fatalf("expected zero page delay, got %s", cfg.PageDelay())
	}
	if cfg.Discovery.BaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Discovery.BaseURL)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %+v", cfg.Logging)
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	override := t.TempDir()
	t.Setenv("PLAYSCRIBE_DATA_DIR", override)
	t.Setenv("PLAYSCRIBE_TOPICS_FILE", "")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != override {
		t.Fatalf("expected env data dir %q, got %q", override, cfg.Paths.DataDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[discovery]\nmax_pages = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"max candidates", func(c *config.Config) { c.Discovery.MaxCandidates = 0 }, "discovery.max_candidates"},
		{"max attempts", func(c *config.Config) { c.Discovery.MaxAttempts = -1 }, "discovery.max_attempts"},
		{"page delay", func(c *config.Config) { c.Discovery.PageDelaySeconds = -1 }, "discovery.page_delay_seconds"},
		{"base url", func(c *config.Config) { c.Discovery.BaseURL = "youtube.com" }, "discovery.base_url"},
		{"idle", func(c *config.Config) { c.Workflow.IdleIntervalSeconds = 0 }, "workflow.idle_interval_seconds"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range cases {
		cfg := config.Default()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected %q in %q", tc.name, tc.want, err.Error())
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PLAYSCRIBE_DATA_DIR", "")
	t.Setenv("PLAYSCRIBE_TOPICS_FILE", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Discovery.MaxCandidates != config.Default().Discovery.MaxCandidates {
		t.Fatalf("sample drifted from defaults: %d", cfg.Discovery.MaxCandidates)
	}
}
