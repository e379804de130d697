package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	TranscriptsDir string `toml:"transcripts_dir"`
	LogDir         string `toml:"log_dir"`
}

// Topics points at the topic rules file.
type Topics struct {
	RulesFile string `toml:"rules_file"`
}

// Discovery contains playlist search settings.
type Discovery struct {
	SearchPrefix          string `toml:"search_prefix"`
	PageDelaySeconds      int    `toml:"page_delay_seconds"`
	MaxCandidates         int    `toml:"max_candidates"`
	MaxAttempts           int    `toml:"max_attempts"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	Language              string `toml:"language"`
	Region                string `toml:"region"`
	BaseURL               string `toml:"base_url"`
}

// Transcripts contains caption lookup settings.
type Transcripts struct {
	Language string `toml:"language"`
	// GeneratedOnly restricts availability checks to auto-generated caption tracks.
	GeneratedOnly bool `toml:"generated_only"`
}

// Workflow contains scheduler timing.
type Workflow struct {
	IdleIntervalSeconds       int `toml:"idle_interval_seconds"`
	ErrorRetryIntervalSeconds int `toml:"error_retry_interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for playscribe.
//
// Configuration sections by subsystem:
//   - Paths: catalog database, transcript archive, and logs
//   - Topics: location of the topic rules file
//   - Discovery: playlist search pacing and retry bounds
//   - Transcripts: caption language selection
//   - Workflow: scheduler idle and error intervals
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Topics      Topics      `toml:"topics"`
	Discovery   Discovery   `toml:"discovery"`
	Transcripts Transcripts `toml:"transcripts"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("playscribe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.TranscriptsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the catalog database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the single-writer lock file guarding the catalog.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "playscribe.lock")
}

// PIDPath returns the file where a running daemon records its process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "playscribe.pid")
}

// PageDelay returns the pause between discovery page requests.
func (c *Config) PageDelay() time.Duration {
	return time.Duration(c.Discovery.PageDelaySeconds) * time.Second
}

// RequestTimeout returns the HTTP timeout applied to provider requests.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Discovery.RequestTimeoutSeconds) * time.Second
}

// IdleInterval returns how long the scheduler sleeps when no work remains.
func (c *Config) IdleInterval() time.Duration {
	return time.Duration(c.Workflow.IdleIntervalSeconds) * time.Second
}

// ErrorRetryInterval returns the pause after a failed cycle.
func (c *Config) ErrorRetryInterval() time.Duration {
	return time.Duration(c.Workflow.ErrorRetryIntervalSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
