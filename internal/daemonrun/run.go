// Package daemonrun assembles the playscribe runtime from configuration:
// catalog store, topic registry, YouTube client, transcript storage,
// scheduler, and daemon.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"playscribe/internal/catalog"
	"playscribe/internal/config"
	"playscribe/internal/daemon"
	"playscribe/internal/logging"
	"playscribe/internal/preflight"
	"playscribe/internal/services"
	"playscribe/internal/topics"
	"playscribe/internal/transcripts"
	"playscribe/internal/workflow"
	"playscribe/internal/youtube"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Build opens the catalog and wires every collaborator into a daemon. The
// caller owns the returned daemon and must Close it.
func Build(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if failed := preflight.Failed(preflight.RunAll(context.Background(), cfg)); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, r := range failed {
			details = append(details, r.Name+": "+r.Detail)
		}
		return nil, services.Wrap(services.ErrConfiguration, "daemonrun", "preflight",
			strings.Join(details, "; "), nil)
	}

	registry, err := topics.Load(cfg.Topics.RulesFile)
	if err != nil {
		return nil, err
	}
	client, err := youtube.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, err
	}

	scheduler, err := workflow.New(cfg, workflow.Dependencies{
		Store:       store,
		Discovery:   client,
		Transcripts: client,
		Storage:     transcripts.NewStore(cfg.Paths.TranscriptsDir),
		Registry:    registry,
	}, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	d, err := daemon.New(cfg, store, scheduler, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return d, nil
}

// Run starts the playscribe daemon and blocks until a signal arrives or the
// scheduler stops on a fatal error.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("playscribed-%s.log", runID))

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(CurrentLogPath(cfg), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update playscribed.log link: %v\n", err)
	}
	logging.PruneLogs(logger, cfg.Paths.LogDir, "playscribed-*.log", cfg.Logging.RetentionDays, logPath)
	logConfigSnapshot(logger, cfg)

	d, err := Build(cfg, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "daemon setup failed", "daemon_setup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run playscribe status to see failing checks"),
		)
		return err
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- d.Wait() }()

	select {
	case <-signalCtx.Done():
		logger.Info("playscribe daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
		d.Stop()
		return nil
	case err := <-waitErr:
		return err
	}
}

// CurrentLogPath is the link that points at the log of the latest daemon run.
func CurrentLogPath(cfg *config.Config) string {
	if cfg == nil || cfg.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(cfg.Paths.LogDir, "playscribed.log")
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("rules_file", cfg.Topics.RulesFile),
		logging.String("database", cfg.DatabasePath()),
		logging.String("transcripts_dir", cfg.Paths.TranscriptsDir),
		logging.String("search_prefix", cfg.Discovery.SearchPrefix),
		logging.Int("max_candidates", cfg.Discovery.MaxCandidates),
		logging.Int("max_attempts", cfg.Discovery.MaxAttempts),
		logging.Duration("page_delay", cfg.PageDelay()),
		logging.Duration("idle_interval", cfg.IdleInterval()),
		logging.String("transcript_language", cfg.Transcripts.Language),
		logging.Bool("generated_only", cfg.Transcripts.GeneratedOnly),
	)
}
