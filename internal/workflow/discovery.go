package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"playscribe/internal/catalog"
	"playscribe/internal/logging"
	"playscribe/internal/services"
	"playscribe/internal/topics"
	"playscribe/internal/youtube"
)

type classifiedCandidate struct {
	candidate youtube.Candidate
	ref       catalog.TopicRef
	topicName string
}

// discover runs one discovery pass for topic and marks it searched. When
// every attempt fails the topic stays unsearched and its failure is recorded.
func (s *Scheduler) discover(ctx context.Context, topic catalog.Topic) error {
	ctx = services.WithTopic(ctx, topic.Name)
	logger := logging.WithContext(ctx, s.logger)
	phrase := strings.TrimSpace(s.searchPrefix + " " + topic.Name)

	logger.Info("discovery started",
		logging.String("phrase", phrase),
		logging.String(logging.FieldEventType, "discovery_started"),
	)

	candidates, err := s.searchWithRetry(ctx, logger, phrase)
	if err != nil {
		if !errors.Is(err, ErrSearchExhausted) {
			return err
		}
		if recErr := s.deps.Store.RecordSearchFailure(ctx, topic.ID, err.Error()); recErr != nil {
			return fmt.Errorf("record search failure: %w", recErr)
		}
		logging.WarnWithContext(logger, "topic search exhausted; will retry on a later cycle", "discovery_exhausted",
			logging.Int("attempts", s.maxAttempts),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access to the search provider"),
			logging.String(logging.FieldImpact, "topic stays unsearched"),
		)
		return err
	}

	fresh, err := s.filterNew(ctx, candidates)
	if err != nil {
		return err
	}
	classified, err := s.classify(ctx, fresh)
	if err != nil {
		return err
	}

	matched := 0
	for _, item := range classified {
		if err := s.record(ctx, item); err != nil {
			return err
		}
		if item.ref.Matched() {
			matched++
		}
	}

	if err := s.deps.Store.MarkTopicSearched(ctx, topic.ID); err != nil {
		return fmt.Errorf("mark topic searched: %w", err)
	}
	logger.Info("discovery completed",
		logging.Int("candidates", len(candidates)),
		logging.Int("new_playlists", len(classified)),
		logging.Int("matched", matched),
		logging.Int("no_topic", len(classified)-matched),
		logging.String(logging.FieldEventType, "discovery_completed"),
	)
	return nil
}

// searchWithRetry restarts the whole search from the first page whenever a
// page fails, up to maxAttempts times.
func (s *Scheduler) searchWithRetry(ctx context.Context, logger *slog.Logger, phrase string) ([]youtube.Candidate, error) {
	attempts := s.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		candidates, err := s.collect(ctx, logger, phrase)
		if err == nil {
			return candidates, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if services.IsFatal(err) {
			return nil, err
		}
		lastErr = err
		logger.Warn("search attempt failed; restarting from first page",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Error(err),
			logging.String(logging.FieldEventType, "discovery_attempt_failed"),
		)
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrSearchExhausted, attempts, lastErr)
}

// collect pages through one search until an empty page or the candidate cap.
func (s *Scheduler) collect(ctx context.Context, logger *slog.Logger, phrase string) ([]youtube.Candidate, error) {
	pager := s.deps.Discovery.Search(phrase)
	var candidates []youtube.Candidate
	for page := 0; ; page++ {
		if page > 0 {
			if err := sleepContext(ctx, s.pageDelay); err != nil {
				return nil, err
			}
		}
		batch, err := pager.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page+1, err)
		}
		if len(batch) == 0 {
			return candidates, nil
		}
		candidates = append(candidates, batch...)
		logger.Debug("search page fetched",
			logging.Int("page", page+1),
			logging.Int("page_candidates", len(batch)),
			logging.Int("total_candidates", len(candidates)),
			logging.String(logging.FieldEventType, "discovery_page"),
		)
		if s.maxCandidates > 0 && len(candidates) >= s.maxCandidates {
			return candidates[:s.maxCandidates], nil
		}
	}
}

// filterNew drops duplicates within the batch and candidates already
// recorded with a resolved topic. Rows left unresolved by an interrupted
// earlier pass are classified again.
func (s *Scheduler) filterNew(ctx context.Context, candidates []youtube.Candidate) ([]youtube.Candidate, error) {
	seen := make(map[string]struct{}, len(candidates))
	fresh := make([]youtube.Candidate, 0, len(candidates))
	for _, c := range candidates {
		id := strings.TrimSpace(c.PlaylistID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		existing, err := s.deps.Store.PlaylistByExternalID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check playlist %s: %w", id, err)
		}
		if existing != nil && existing.Topic.State != catalog.TopicUnresolved {
			continue
		}
		c.PlaylistID = id
		fresh = append(fresh, c)
	}
	return fresh, nil
}

// classify resolves every candidate before anything is written, so an
// ambiguous title aborts the batch without partial records.
func (s *Scheduler) classify(ctx context.Context, candidates []youtube.Candidate) ([]classifiedCandidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	known, err := s.deps.Store.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	ids := make(map[string]int64, len(known))
	for _, t := range known {
		ids[t.Name] = t.ID
	}

	out := make([]classifiedCandidate, 0, len(candidates))
	for _, c := range candidates {
		res, err := s.deps.Registry.Resolve(c.Title)
		if err != nil {
			logging.ErrorWithContext(logging.WithContext(services.WithPlaylistID(ctx, c.PlaylistID), s.logger),
				"ambiguous topic match; fix the topic rules", "topic_ambiguous",
				logging.String("title", c.Title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "add a disambiguation priority or tighten the match rules"),
			)
			return nil, err
		}
		item := classifiedCandidate{candidate: c, ref: catalog.NoTopic()}
		if res.Kind == topics.Matched && res.Topic != nil {
			id, ok := ids[res.Topic.Name]
			if !ok {
				return nil, fmt.Errorf("%w: topic %q is not registered in the catalog", services.ErrConfiguration, res.Topic.Name)
			}
			item.ref = catalog.MatchedTopic(id)
			item.topicName = res.Topic.Name
		}
		out = append(out, item)
	}
	return out, nil
}

// record stores the playlist with its channel and classification.
func (s *Scheduler) record(ctx context.Context, item classifiedCandidate) error {
	c := item.candidate
	ctx = services.WithPlaylistID(ctx, c.PlaylistID)

	_, recorded, err := s.deps.Store.RecordCandidate(ctx, catalog.CandidateRecord{
		ExternalID:        c.PlaylistID,
		Title:             c.Title,
		ChannelExternalID: c.ChannelID,
		ChannelName:       c.ChannelName,
		Topic:             item.ref,
	})
	if err != nil {
		return fmt.Errorf("record playlist %s: %w", c.PlaylistID, err)
	}
	if !recorded {
		return nil
	}

	logger := logging.WithContext(ctx, s.logger)
	if item.topicName != "" {
		logger = logger.With(logging.String("matched_topic", item.topicName))
	}
	logger.Debug("playlist recorded",
		logging.String("title", c.Title),
		logging.String("topic_ref", item.ref.String()),
		logging.String(logging.FieldEventType, "playlist_recorded"),
	)
	return nil
}
