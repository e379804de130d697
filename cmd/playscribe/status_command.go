package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"playscribe/internal/catalog"
	"playscribe/internal/daemonctl"
	"playscribe/internal/preflight"
)

type statusReport struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid,omitempty"`
	ConfigPath   string             `json:"config_path"`
	DatabasePath string             `json:"database_path"`
	Checks       []preflight.Result `json:"checks"`
	Catalog      catalogCounts      `json:"catalog"`
}

type catalogCounts struct {
	Topics         int            `json:"topics"`
	TopicsSearched int            `json:"topics_searched"`
	TopicsPending  int            `json:"topics_pending"`
	Channels       int            `json:"channels"`
	Playlists      int            `json:"playlists"`
	Unresolved     int            `json:"unresolved"`
	NoTopic        int            `json:"no_topic"`
	Transcription  map[string]int `json:"transcription"`
	Retrieval      map[string]int `json:"retrieval"`
}

func newCatalogCounts(stats catalog.Stats) catalogCounts {
	counts := catalogCounts{
		Topics:         stats.Topics,
		TopicsSearched: stats.TopicsSearched,
		TopicsPending:  stats.TopicsPending,
		Channels:       stats.Channels,
		Playlists:      stats.Playlists,
		Unresolved:     stats.Unresolved,
		NoTopic:        stats.NoTopic,
		Transcription:  make(map[string]int, len(stats.Transcription)),
		Retrieval:      make(map[string]int, len(stats.Retrieval)),
	}
	for _, status := range catalog.TranscriptionStatuses() {
		counts.Transcription[string(status)] = stats.Transcription[status]
	}
	for _, status := range catalog.RetrievalStatuses() {
		counts.Retrieval[string(status)] = stats.Retrieval[status]
	}
	return counts
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var offline bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, readiness, and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := statusReport{ConfigPath: ctx.configPath, DatabasePath: cfg.DatabasePath()}
			report.Running, report.PID, _ = daemonctl.ProcessInfo(cfg)
			report.Checks = preflight.RunAll(cmd.Context(), cfg)
			if !offline {
				report.Checks = append(report.Checks,
					preflight.CheckProvider(cmd.Context(), cfg.Discovery.BaseURL, cfg.RequestTimeout()))
			}
			if err := ctx.withStore(func(store *catalog.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				report.Catalog = newCatalogCounts(stats)
				return nil
			}); err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderStatus(cmd, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the search provider reachability probe")
	return cmd
}

func renderStatus(cmd *cobra.Command, report statusReport) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("System Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if report.Running {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", report.PID), colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "not running", colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Config", statusInfo, report.ConfigPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, report.DatabasePath, colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Readiness", colorize) {
		fmt.Fprintln(stdout, line)
	}
	for _, check := range report.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Catalog", colorize) {
		fmt.Fprintln(stdout, line)
	}
	c := report.Catalog
	fmt.Fprintln(stdout, renderCountLine("Topics", c.Topics))
	fmt.Fprintln(stdout, renderCountLine("Topics searched", c.TopicsSearched))
	fmt.Fprintln(stdout, renderCountLine("Topics pending", c.TopicsPending))
	fmt.Fprintln(stdout, renderCountLine("Channels", c.Channels))
	fmt.Fprintln(stdout, renderCountLine("Playlists", c.Playlists))
	fmt.Fprintln(stdout, renderCountLine("No topic", c.NoTopic))
	for _, status := range catalog.TranscriptionStatuses() {
		fmt.Fprintln(stdout, renderCountLine("Transcription "+string(status), c.Transcription[string(status)]))
	}
	for _, status := range catalog.RetrievalStatuses() {
		fmt.Fprintln(stdout, renderCountLine("Retrieval "+string(status), c.Retrieval[string(status)]))
	}
}
