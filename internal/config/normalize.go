package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTopics(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	c.normalizeTranscripts()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("PLAYSCRIBE_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TranscriptsDir) == "" {
		c.Paths.TranscriptsDir = filepath.Join(c.Paths.DataDir, "transcripts")
	}
	if c.Paths.TranscriptsDir, err = expandPath(c.Paths.TranscriptsDir); err != nil {
		return fmt.Errorf("paths.transcripts_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTopics() error {
	if value, ok := os.LookupEnv("PLAYSCRIBE_TOPICS_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Topics.RulesFile = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Topics.RulesFile) == "" {
		c.Topics.RulesFile = defaultRulesFile
	}
	var err error
	if c.Topics.RulesFile, err = expandPath(c.Topics.RulesFile); err != nil {
		return fmt.Errorf("topics.rules_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.SearchPrefix = strings.Join(strings.Fields(c.Discovery.SearchPrefix), " ")
	c.Discovery.Language = strings.ToLower(strings.TrimSpace(c.Discovery.Language))
	if c.Discovery.Language == "" {
		c.Discovery.Language = defaultDiscoveryLanguage
	}
	c.Discovery.Region = strings.ToUpper(strings.TrimSpace(c.Discovery.Region))
	if c.Discovery.Region == "" {
		c.Discovery.Region = defaultDiscoveryRegion
	}
	c.Discovery.BaseURL = strings.TrimRight(strings.TrimSpace(c.Discovery.BaseURL), "/")
	if c.Discovery.BaseURL == "" {
		c.Discovery.BaseURL = defaultDiscoveryBaseURL
	}
}

func (c *Config) normalizeTranscripts() {
	c.Transcripts.Language = strings.ToLower(strings.TrimSpace(c.Transcripts.Language))
	if c.Transcripts.Language == "" {
		c.Transcripts.Language = defaultTranscriptLanguage
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
