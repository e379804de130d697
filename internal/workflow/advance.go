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
	"playscribe/internal/youtube"
)

// errCheckDeferred marks a transcript check that hit a retryable lookup
// failure. The playlist keeps its unknown status.
var errCheckDeferred = errors.New("transcript check deferred")

// advance checks transcript availability for every matched playlist still
// in the unknown state and retrieves the ones that qualify. Playlists left
// transcribed but not retrieved by an earlier interrupted cycle are picked
// up afterwards. A deferred check does not stop the pass; the first one is
// returned once the pass completes. It reports whether any playlist was
// processed.
func (s *Scheduler) advance(ctx context.Context) (bool, error) {
	pending, err := s.deps.Store.PlaylistsPendingTranscription(ctx)
	if err != nil {
		return false, fmt.Errorf("load playlists pending transcription: %w", err)
	}
	processed := 0
	var deferred error
	for _, playlist := range pending {
		err := s.advancePlaylist(ctx, playlist)
		if errors.Is(err, errCheckDeferred) && ctx.Err() == nil {
			if deferred == nil {
				deferred = err
			}
			continue
		}
		if err != nil {
			return processed > 0, err
		}
		processed++
	}

	awaiting, err := s.deps.Store.PlaylistsAwaitingRetrieval(ctx)
	if err != nil {
		return processed > 0, fmt.Errorf("load playlists awaiting retrieval: %w", err)
	}
	for _, playlist := range awaiting {
		pctx := services.WithPlaylistID(ctx, playlist.ExternalID)
		if err := s.retrieve(pctx, logging.WithContext(pctx, s.logger), playlist, nil); err != nil {
			return true, err
		}
		processed++
	}

	if processed > 0 {
		logging.WithContext(ctx, s.logger).Info("advancement pass completed",
			logging.Int("playlists", processed),
			logging.String(logging.FieldEventType, "advance_completed"),
		)
	}
	return processed > 0, deferred
}

func (s *Scheduler) advancePlaylist(ctx context.Context, playlist catalog.Playlist) error {
	ctx = services.WithPlaylistID(ctx, playlist.ExternalID)
	if playlist.TopicName != "" {
		ctx = services.WithTopic(ctx, playlist.TopicName)
	}
	logger := logging.WithContext(ctx, s.logger)

	members, transcribed, err := s.checkTranscripts(ctx, logger, playlist)
	if errors.Is(err, errCheckDeferred) {
		logging.WarnWithContext(logger, "transcript check deferred", "transcription_deferred",
			logging.Error(err),
			logging.String(logging.FieldImpact, "playlist stays unknown and is checked again next cycle"),
		)
		return err
	}
	if err != nil {
		return err
	}
	status := catalog.NotTranscribed
	if transcribed {
		status = catalog.Transcribed
	}
	if err := s.deps.Store.SetTranscriptionStatus(ctx, playlist.ID, status); err != nil {
		return fmt.Errorf("set transcription status: %w", err)
	}
	logger.Info("transcript availability checked",
		logging.String("transcription_status", string(status)),
		logging.Int("members", len(members)),
		logging.String(logging.FieldEventType, "transcription_checked"),
	)
	if !transcribed {
		return nil
	}
	return s.retrieve(ctx, logger, playlist, members)
}

// checkTranscripts reports whether every member has an English transcript.
// It stops at the first member without one. Content that cannot be read
// counts as a miss. Network and server failures yield errCheckDeferred.
func (s *Scheduler) checkTranscripts(ctx context.Context, logger *slog.Logger, playlist catalog.Playlist) ([]string, bool, error) {
	members, err := s.deps.Discovery.PlaylistMembers(ctx, playlist.ExternalID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		if !youtube.IsUnavailable(err) {
			return nil, false, fmt.Errorf("%w: list members: %w", errCheckDeferred, err)
		}
		logging.WarnWithContext(logger, "playlist members unavailable", "members_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "playlist marked not_transcribed"),
			logging.String(logging.FieldErrorHint, "run playlists recheck once the playlist is readable"),
		)
		return nil, false, nil
	}
	if len(members) == 0 {
		return nil, false, nil
	}
	for _, videoID := range members {
		ok, err := s.deps.Transcripts.HasEnglishTranscript(ctx, videoID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, false, ctxErr
			}
			if !youtube.IsUnavailable(err) {
				return nil, false, fmt.Errorf("%w: captions for %s: %w", errCheckDeferred, videoID, err)
			}
			logger.Debug("caption lookup unreadable; treating as missing",
				logging.String("video_id", videoID),
				logging.Error(err),
			)
			return members, false, nil
		}
		if !ok {
			logger.Debug("member lacks english transcript", logging.String("video_id", videoID))
			return members, false, nil
		}
	}
	return members, true, nil
}

// retrieve fetches every member transcript in playlist order, joins them,
// and stores the result. members is reloaded when nil.
func (s *Scheduler) retrieve(ctx context.Context, logger *slog.Logger, playlist catalog.Playlist, members []string) error {
	text, err := s.collectTranscripts(ctx, playlist, members)
	if err == nil {
		err = s.deps.Storage.Write(playlist.ExternalID, text)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if setErr := s.deps.Store.SetRetrievalStatus(ctx, playlist.ID, catalog.RetrievalFailed, err.Error()); setErr != nil {
			return fmt.Errorf("set retrieval status: %w", setErr)
		}
		logging.WarnWithContext(logger, "transcript retrieval failed", "retrieval_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "playlist marked failed"),
			logging.String(logging.FieldErrorHint, "run playlists retry-failed to try again"),
		)
		return nil
	}
	if err := s.deps.Store.SetRetrievalStatus(ctx, playlist.ID, catalog.Retrieved, ""); err != nil {
		return fmt.Errorf("set retrieval status: %w", err)
	}
	logger.Info("transcript stored",
		logging.Int("characters", len(text)),
		logging.String(logging.FieldEventType, "retrieval_completed"),
	)
	return nil
}

func (s *Scheduler) collectTranscripts(ctx context.Context, playlist catalog.Playlist, members []string) (string, error) {
	if members == nil {
		var err error
		members, err = s.deps.Discovery.PlaylistMembers(ctx, playlist.ExternalID)
		if err != nil {
			return "", fmt.Errorf("list members: %w", err)
		}
	}
	if len(members) == 0 {
		return "", fmt.Errorf("%w: playlist has no members", services.ErrValidation)
	}
	texts := make([]string, 0, len(members))
	for _, videoID := range members {
		text, err := s.deps.Transcripts.TranscriptText(ctx, videoID)
		if err != nil {
			return "", fmt.Errorf("transcript for %s: %w", videoID, err)
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, " "), nil
}
