package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Topics.RulesFile) == "" {
		return errors.New("topics.rules_file must be set")
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if c.Discovery.PageDelaySeconds < 0 {
		return errors.New("discovery.page_delay_seconds must be >= 0")
	}
	if c.Discovery.MaxCandidates <= 0 {
		return errors.New("discovery.max_candidates must be positive")
	}
	if c.Discovery.MaxAttempts <= 0 {
		return errors.New("discovery.max_attempts must be positive")
	}
	if c.Discovery.RequestTimeoutSeconds <= 0 {
		return errors.New("discovery.request_timeout_seconds must be positive")
	}
	if !strings.HasPrefix(c.Discovery.BaseURL, "http://") && !strings.HasPrefix(c.Discovery.BaseURL, "https://") {
		return fmt.Errorf("discovery.base_url must be an http(s) URL, got %q", c.Discovery.BaseURL)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.IdleIntervalSeconds <= 0 {
		return errors.New("workflow.idle_interval_seconds must be positive")
	}
	if c.Workflow.ErrorRetryIntervalSeconds <= 0 {
		return errors.New("workflow.error_retry_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}
