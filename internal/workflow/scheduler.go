package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"playscribe/internal/catalog"
	"playscribe/internal/config"
	"playscribe/internal/logging"
	"playscribe/internal/services"
	"playscribe/internal/topics"
	"playscribe/internal/youtube"
)

// ErrSearchExhausted reports a topic whose search failed on every attempt.
var ErrSearchExhausted = fmt.Errorf("%w: search attempts exhausted", services.ErrTransient)

// Store is the catalog surface the scheduler needs.
type Store interface {
	SyncTopics(ctx context.Context, names []string) (int, error)
	ListTopics(ctx context.Context) ([]catalog.Topic, error)
	PendingTopics(ctx context.Context) ([]catalog.Topic, error)
	MarkTopicSearched(ctx context.Context, topicID int64) error
	RecordSearchFailure(ctx context.Context, topicID int64, message string) error
	PlaylistByExternalID(ctx context.Context, externalID string) (*catalog.Playlist, error)
	RecordCandidate(ctx context.Context, rec catalog.CandidateRecord) (*catalog.Playlist, bool, error)
	PlaylistsPendingTranscription(ctx context.Context) ([]catalog.Playlist, error)
	PlaylistsAwaitingRetrieval(ctx context.Context) ([]catalog.Playlist, error)
	SetTranscriptionStatus(ctx context.Context, playlistID int64, status catalog.TranscriptionStatus) error
	SetRetrievalStatus(ctx context.Context, playlistID int64, status catalog.RetrievalStatus, message string) error
}

// Discovery searches for playlists and lists their members.
type Discovery interface {
	Search(phrase string) youtube.Pager
	PlaylistMembers(ctx context.Context, playlistID string) ([]string, error)
}

// Transcripts answers caption questions for single videos.
type Transcripts interface {
	HasEnglishTranscript(ctx context.Context, videoID string) (bool, error)
	TranscriptText(ctx context.Context, videoID string) (string, error)
}

// Storage persists joined playlist transcripts.
type Storage interface {
	Write(playlistID, text string) error
}

// Resolver maps titles onto topics.
type Resolver interface {
	Names() []string
	Resolve(title string) (topics.Resolution, error)
}

// Dependencies bundles the collaborators handed to New.
type Dependencies struct {
	Store       Store
	Discovery   Discovery
	Transcripts Transcripts
	Storage     Storage
	Registry    Resolver
}

func (d Dependencies) validate() error {
	var missing []string
	if d.Store == nil {
		missing = append(missing, "store")
	}
	if d.Discovery == nil {
		missing = append(missing, "discovery")
	}
	if d.Transcripts == nil {
		missing = append(missing, "transcripts")
	}
	if d.Storage == nil {
		missing = append(missing, "storage")
	}
	if d.Registry == nil {
		missing = append(missing, "registry")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: scheduler missing %s", services.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// Outcome classifies what a cycle did.
type Outcome int

const (
	// OutcomeIdle means there was no work.
	OutcomeIdle Outcome = iota
	// OutcomeSearched means one topic completed discovery.
	OutcomeSearched
	// OutcomeSearchFailed means one topic exhausted its search attempts.
	OutcomeSearchFailed
	// OutcomeAdvanced means pending playlists were checked or retrieved.
	OutcomeAdvanced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSearched:
		return "searched"
	case OutcomeSearchFailed:
		return "search_failed"
	case OutcomeAdvanced:
		return "advanced"
	default:
		return "idle"
	}
}

// Scheduler runs discovery and advancement cycles.
type Scheduler struct {
	deps   Dependencies
	logger *slog.Logger

	searchPrefix       string
	maxCandidates      int
	maxAttempts        int
	pageDelay          time.Duration
	idleInterval       time.Duration
	errorRetryInterval time.Duration

	topicsSynced bool
}

// New constructs a scheduler from configuration and collaborators.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Scheduler, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: scheduler requires config", services.ErrConfiguration)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		deps:               deps,
		logger:             logging.NewComponentLogger(logger, "scheduler"),
		searchPrefix:       strings.TrimSpace(cfg.Discovery.SearchPrefix),
		maxCandidates:      cfg.Discovery.MaxCandidates,
		maxAttempts:        cfg.Discovery.MaxAttempts,
		pageDelay:          cfg.PageDelay(),
		idleInterval:       cfg.IdleInterval(),
		errorRetryInterval: cfg.ErrorRetryInterval(),
	}, nil
}

// Cycle performs one bounded unit of work.
func (s *Scheduler) Cycle(ctx context.Context) (Outcome, error) {
	ctx = services.WithCycleID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, s.logger)

	if err := s.syncTopics(ctx, logger); err != nil {
		return OutcomeIdle, err
	}

	pending, err := s.deps.Store.PendingTopics(ctx)
	if err != nil {
		return OutcomeIdle, fmt.Errorf("load pending topics: %w", err)
	}
	if len(pending) > 0 {
		err := s.discover(ctx, pending[0])
		if errors.Is(err, ErrSearchExhausted) {
			return OutcomeSearchFailed, err
		}
		if err != nil {
			return OutcomeIdle, err
		}
		return OutcomeSearched, nil
	}

	advanced, err := s.advance(ctx)
	if err != nil {
		return OutcomeAdvanced, err
	}
	if advanced {
		return OutcomeAdvanced, nil
	}
	logger.Debug("no pending work", logging.String(logging.FieldEventType, "cycle_idle"))
	return OutcomeIdle, nil
}

// syncTopics registers registry topics in the catalog once per scheduler.
func (s *Scheduler) syncTopics(ctx context.Context, logger *slog.Logger) error {
	if s.topicsSynced {
		return nil
	}
	added, err := s.deps.Store.SyncTopics(ctx, s.deps.Registry.Names())
	if err != nil {
		return fmt.Errorf("sync topics: %w", err)
	}
	if added > 0 {
		logger.Info("registered new topics",
			logging.Int("added", added),
			logging.String(logging.FieldEventType, "topics_synced"),
		)
	}
	s.topicsSynced = true
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
