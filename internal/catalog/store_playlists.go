package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PlaylistExists reports whether a playlist with the external id is recorded.
func (s *Store) PlaylistExists(ctx context.Context, externalID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM playlists WHERE external_id = ?`, externalID)
}

// CreatePlaylist records a newly discovered playlist with unresolved topic,
// unknown transcription, and not_retrieved retrieval. A known external id
// yields ErrDuplicate.
func (s *Store) CreatePlaylist(ctx context.Context, externalID, title string) (*Playlist, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, errors.New("create playlist: external id is required")
	}
	now := nowString()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO playlists (
            external_id, title, topic_state, transcription_status, retrieval_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(external_id) DO NOTHING`,
		externalID, title, TopicUnresolved, TranscriptionUnknown, NotRetrieved, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert playlist: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: playlist %s", ErrDuplicate, externalID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.PlaylistByID(ctx, id)
}

// CandidateRecord is a discovered playlist with its owner and classification.
type CandidateRecord struct {
	ExternalID        string
	Title             string
	ChannelExternalID string
	ChannelName       string
	Topic             TopicRef
}

// RecordCandidate stores a discovered playlist, its channel, and both
// associations in one transaction. A playlist already recorded with a
// resolved topic is left untouched and reported with recorded=false. A row
// left unresolved by an earlier interrupted write is completed.
func (s *Store) RecordCandidate(ctx context.Context, rec CandidateRecord) (*Playlist, bool, error) {
	rec.ExternalID = strings.TrimSpace(rec.ExternalID)
	rec.ChannelExternalID = strings.TrimSpace(rec.ChannelExternalID)
	if rec.ExternalID == "" {
		return nil, false, errors.New("record candidate: external id is required")
	}
	if err := rec.Topic.validate(); err != nil {
		return nil, false, err
	}
	if rec.Topic.State == TopicUnresolved {
		return nil, false, fmt.Errorf("%w: candidate %s recorded without classification", ErrInvalidTransition, rec.ExternalID)
	}

	ctx = ensureContext(ctx)
	var (
		playlistID int64
		recorded   bool
	)
	if err := retryOnBusy(ctx, func() error {
		var txErr error
		playlistID, recorded, txErr = s.recordCandidateTx(ctx, rec)
		return txErr
	}); err != nil {
		return nil, false, fmt.Errorf("record candidate %s: %w", rec.ExternalID, err)
	}
	playlist, err := s.PlaylistByID(ctx, playlistID)
	if err != nil {
		return nil, false, err
	}
	return playlist, recorded, nil
}

func (s *Store) recordCandidateTx(ctx context.Context, rec CandidateRecord) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO playlists (
            external_id, title, topic_state, transcription_status, retrieval_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(external_id) DO NOTHING`,
		rec.ExternalID, rec.Title, TopicUnresolved, TranscriptionUnknown, NotRetrieved, now, now,
	); err != nil {
		return 0, false, fmt.Errorf("insert playlist: %w", err)
	}
	var (
		playlistID int64
		state      string
	)
	if err := tx.QueryRowContext(ctx,
		`SELECT id, topic_state FROM playlists WHERE external_id = ?`, rec.ExternalID,
	).Scan(&playlistID, &state); err != nil {
		return 0, false, fmt.Errorf("load playlist: %w", err)
	}
	if TopicState(state) != TopicUnresolved {
		return playlistID, false, nil
	}

	var channelID any
	if rec.ChannelExternalID != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO channels (external_id, name, created_at) VALUES (?, ?, ?)
             ON CONFLICT(external_id) DO NOTHING`,
			rec.ChannelExternalID, strings.TrimSpace(rec.ChannelName), now,
		); err != nil {
			return 0, false, fmt.Errorf("insert channel: %w", err)
		}
		var id int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM channels WHERE external_id = ?`, rec.ChannelExternalID,
		).Scan(&id); err != nil {
			return 0, false, fmt.Errorf("load channel: %w", err)
		}
		channelID = id
	}

	var topicID any
	if rec.Topic.State == TopicMatched {
		topicID = rec.Topic.ID
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE playlists SET channel_id = COALESCE(?, channel_id), topic_state = ?, topic_id = ?, updated_at = ?
         WHERE id = ?`,
		channelID, rec.Topic.State, topicID, now, playlistID,
	); err != nil {
		return 0, false, fmt.Errorf("associate playlist: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit: %w", err)
	}
	return playlistID, true, nil
}

// PlaylistByID fetches a playlist by row id, returning nil when absent.
func (s *Store) PlaylistByID(ctx context.Context, id int64) (*Playlist, error) {
	return s.getPlaylist(ctx, `WHERE p.id = ?`, id)
}

// PlaylistByExternalID fetches a playlist by provider id, returning nil when absent.
func (s *Store) PlaylistByExternalID(ctx context.Context, externalID string) (*Playlist, error) {
	return s.getPlaylist(ctx, `WHERE p.external_id = ?`, strings.TrimSpace(externalID))
}

func (s *Store) getPlaylist(ctx context.Context, where string, args ...any) (*Playlist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+playlistColumns+playlistFrom+` `+where, args...)
	playlist, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	return playlist, nil
}

// AssociateChannel links a playlist to its owning channel.
func (s *Store) AssociateChannel(ctx context.Context, playlistID, channelID int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE playlists SET channel_id = ?, updated_at = ? WHERE id = ?`,
		channelID, nowString(), playlistID,
	)
	if err != nil {
		return fmt.Errorf("associate channel: %w", err)
	}
	return requireRow(res, "playlist", playlistID)
}

// AssociateTopic records the topic classification of a playlist.
func (s *Store) AssociateTopic(ctx context.Context, playlistID int64, ref TopicRef) error {
	if err := ref.validate(); err != nil {
		return err
	}
	var topicID any
	if ref.State == TopicMatched {
		topicID = ref.ID
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE playlists SET topic_state = ?, topic_id = ?, updated_at = ? WHERE id = ?`,
		ref.State, topicID, nowString(), playlistID,
	)
	if err != nil {
		return fmt.Errorf("associate topic: %w", err)
	}
	return requireRow(res, "playlist", playlistID)
}

// PlaylistsPendingTranscription returns matched playlists whose transcription
// status is still unknown, oldest first.
func (s *Store) PlaylistsPendingTranscription(ctx context.Context) ([]Playlist, error) {
	return s.queryPlaylists(ctx,
		`WHERE p.topic_state = ? AND p.transcription_status = ? ORDER BY p.id`,
		TopicMatched, TranscriptionUnknown,
	)
}

// PlaylistsAwaitingRetrieval returns matched, transcribed playlists that have
// not been stored yet. Failed retrievals are excluded.
func (s *Store) PlaylistsAwaitingRetrieval(ctx context.Context) ([]Playlist, error) {
	return s.queryPlaylists(ctx,
		`WHERE p.topic_state = ? AND p.transcription_status = ? AND p.retrieval_status = ? ORDER BY p.id`,
		TopicMatched, Transcribed, NotRetrieved,
	)
}

// ListPlaylists returns playlists matching the filter, oldest first.
func (s *Store) ListPlaylists(ctx context.Context, filter PlaylistFilter) ([]Playlist, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Transcription != "" {
		clauses = append(clauses, "p.transcription_status = ?")
		args = append(args, filter.Transcription)
	}
	if filter.Retrieval != "" {
		clauses = append(clauses, "p.retrieval_status = ?")
		args = append(args, filter.Retrieval)
	}
	if topic := strings.TrimSpace(filter.Topic); topic != "" {
		clauses = append(clauses, "t.name = ?")
		args = append(args, topic)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	where += " ORDER BY p.id"
	if filter.Limit > 0 {
		where += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	return s.queryPlaylists(ctx, where, args...)
}

func (s *Store) queryPlaylists(ctx context.Context, where string, args ...any) ([]Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playlistColumns+playlistFrom+` `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	return scanPlaylists(rows)
}

// SetTranscriptionStatus records the transcript availability of a playlist.
// Moving away from transcribed is refused once retrieval has been attempted.
func (s *Store) SetTranscriptionStatus(ctx context.Context, playlistID int64, status TranscriptionStatus) error {
	if _, ok := ParseTranscriptionStatus(string(status)); !ok {
		return fmt.Errorf("%w: unknown transcription status %q", ErrInvalidTransition, status)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE playlists SET transcription_status = ?, updated_at = ?
         WHERE id = ? AND (? = ? OR retrieval_status = ?)`,
		status, nowString(), playlistID, status, Transcribed, NotRetrieved,
	)
	if err != nil {
		return fmt.Errorf("set transcription status: %w", err)
	}
	return s.checkTransition(ctx, res, playlistID, "transcription "+string(status))
}

// SetRetrievalStatus records the outcome of storing a playlist transcript.
// Retrieved and failed require the playlist to be transcribed. message is kept
// with failed outcomes and cleared otherwise.
func (s *Store) SetRetrievalStatus(ctx context.Context, playlistID int64, status RetrievalStatus, message string) error {
	if _, ok := ParseRetrievalStatus(string(status)); !ok {
		return fmt.Errorf("%w: unknown retrieval status %q", ErrInvalidTransition, status)
	}
	if status != RetrievalFailed {
		message = ""
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE playlists SET retrieval_status = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND (? = ? OR transcription_status = ?)`,
		status, nullableString(message), nowString(), playlistID, status, NotRetrieved, Transcribed,
	)
	if err != nil {
		return fmt.Errorf("set retrieval status: %w", err)
	}
	return s.checkTransition(ctx, res, playlistID, "retrieval "+string(status))
}

func (s *Store) checkTransition(ctx context.Context, res sql.Result, playlistID int64, target string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	playlist, err := s.PlaylistByID(ctx, playlistID)
	if err != nil {
		return err
	}
	if playlist == nil {
		return notFound("playlist", playlistID)
	}
	return fmt.Errorf("%w: playlist %s (transcription=%s retrieval=%s) cannot move to %s",
		ErrInvalidTransition, playlist.ExternalID, playlist.TranscriptionStatus, playlist.RetrievalStatus, target)
}

// RecheckNotTranscribed returns playlists marked not_transcribed to unknown
// so the next cycle checks their transcripts again.
func (s *Store) RecheckNotTranscribed(ctx context.Context, externalIDs ...string) (int64, error) {
	query := `UPDATE playlists SET transcription_status = ?, updated_at = ? WHERE transcription_status = ?`
	args := []any{TranscriptionUnknown, nowString(), NotTranscribed}
	if len(externalIDs) > 0 {
		query += ` AND external_id IN (` + makePlaceholders(len(externalIDs)) + `)`
		for _, id := range externalIDs {
			args = append(args, strings.TrimSpace(id))
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("recheck playlists: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed resets playlists whose retrieval failed so the next cycle
// re-checks their transcripts from scratch.
func (s *Store) RetryFailed(ctx context.Context, externalIDs ...string) (int64, error) {
	query := `UPDATE playlists SET transcription_status = ?, retrieval_status = ?, error_message = NULL, updated_at = ?
        WHERE retrieval_status = ?`
	args := []any{TranscriptionUnknown, NotRetrieved, nowString(), RetrievalFailed}
	if len(externalIDs) > 0 {
		query += ` AND external_id IN (` + makePlaceholders(len(externalIDs)) + `)`
		for _, id := range externalIDs {
			args = append(args, strings.TrimSpace(id))
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed playlists: %w", err)
	}
	return res.RowsAffected()
}
