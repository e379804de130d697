package testsupport

import (
	"path/filepath"
	"testing"

	"playscribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Page delay and idle intervals are zeroed so scheduler tests never sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.TranscriptsDir = filepath.Join(base, "data", "transcripts")
	cfgVal.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfgVal.Topics.RulesFile = filepath.Join(base, "topics.toml")
	cfgVal.Discovery.PageDelaySeconds = 0
	cfgVal.Discovery.BaseURL = "http://127.0.0.1:0"
	cfgVal.Workflow.IdleIntervalSeconds = 0
	cfgVal.Workflow.ErrorRetryIntervalSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithBaseURL points the YouTube clients at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discovery.BaseURL = url
	}
}

// WithRulesFile writes body as the topic rules file and points the config at it.
func WithRulesFile(name, body string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, name)
		WriteFile(b.t, path, body)
		b.cfg.Topics.RulesFile = path
	}
}

// WithMaxCandidates overrides the discovery candidate cap.
func WithMaxCandidates(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discovery.MaxCandidates = limit
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
