package config

const (
	defaultConfigPath                = "~/.config/playscribe/config.toml"
	defaultDataDir                   = "~/.local/share/playscribe"
	defaultRulesFile                 = "~/.config/playscribe/topics.toml"
	defaultSearchPrefix              = "lets play"
	defaultPageDelaySeconds          = 5
	defaultMaxCandidates             = 980
	defaultMaxAttempts               = 5
	defaultRequestTimeoutSeconds     = 30
	defaultDiscoveryLanguage         = "en"
	defaultDiscoveryRegion           = "US"
	defaultDiscoveryBaseURL          = "https://www.youtube.com"
	defaultTranscriptLanguage        = "en"
	defaultIdleIntervalSeconds       = 60
	defaultErrorRetryIntervalSeconds = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultLogRetentionDays          = 14
)

// Default returns a Config populated with repository defaults. Transcript and
// log directories are left empty so normalize can derive them from DataDir.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Topics: Topics{
			RulesFile: defaultRulesFile,
		},
		Discovery: Discovery{
			SearchPrefix:          defaultSearchPrefix,
			PageDelaySeconds:      defaultPageDelaySeconds,
			MaxCandidates:         defaultMaxCandidates,
			MaxAttempts:           defaultMaxAttempts,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			Language:              defaultDiscoveryLanguage,
			Region:                defaultDiscoveryRegion,
			BaseURL:               defaultDiscoveryBaseURL,
		},
		Transcripts: Transcripts{
			Language: defaultTranscriptLanguage,
		},
		Workflow: Workflow{
			IdleIntervalSeconds:       defaultIdleIntervalSeconds,
			ErrorRetryIntervalSeconds: defaultErrorRetryIntervalSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
