package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SyncTopics inserts any names not yet present and returns how many were added.
// Existing topics keep their searched state.
func (s *Store) SyncTopics(ctx context.Context, names []string) (int, error) {
	added := 0
	now := nowString()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		res, err := s.execWithRetry(ctx,
			`INSERT INTO topics (name, created_at, updated_at) VALUES (?, ?, ?)
             ON CONFLICT(name) DO NOTHING`,
			name, now, now,
		)
		if err != nil {
			return added, fmt.Errorf("sync topic %q: %w", name, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	return added, nil
}

// ListTopics returns every topic ordered by id.
func (s *Store) ListTopics(ctx context.Context) ([]Topic, error) {
	return s.queryTopics(ctx, `SELECT `+topicColumns+` FROM topics ORDER BY id`)
}

// PendingTopics returns unsearched topics. Topics with fewer recorded search
// failures come first so a persistently failing topic cannot starve the rest.
func (s *Store) PendingTopics(ctx context.Context) ([]Topic, error) {
	return s.queryTopics(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE searched = 0 ORDER BY search_failures, id`)
}

// TopicByName returns the topic with the given name, or nil when absent.
func (s *Store) TopicByName(ctx context.Context, name string) (*Topic, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+topicColumns+` FROM topics WHERE name = ?`, strings.TrimSpace(name))
	topic, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("topic by name: %w", err)
	}
	return topic, nil
}

func (s *Store) queryTopics(ctx context.Context, query string, args ...any) ([]Topic, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *topic)
	}
	return topics, rows.Err()
}

// MarkTopicSearched records that a discovery pass for the topic completed.
func (s *Store) MarkTopicSearched(ctx context.Context, topicID int64) error {
	now := nowString()
	res, err := s.execWithRetry(ctx,
		`UPDATE topics SET searched = 1, searched_at = ?, last_search_error = NULL, updated_at = ? WHERE id = ?`,
		now, now, topicID,
	)
	if err != nil {
		return fmt.Errorf("mark topic searched: %w", err)
	}
	return requireRow(res, "topic", topicID)
}

// RecordSearchFailure bumps the failure counter of a topic whose search could
// not complete. The topic stays unsearched.
func (s *Store) RecordSearchFailure(ctx context.Context, topicID int64, message string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE topics SET search_failures = search_failures + 1, last_search_error = ?, updated_at = ? WHERE id = ?`,
		nullableString(message), nowString(), topicID,
	)
	if err != nil {
		return fmt.Errorf("record search failure: %w", err)
	}
	return requireRow(res, "topic", topicID)
}

// ResetTopics clears the searched flag and failure history of the named
// topics, or of every topic when no names are given.
func (s *Store) ResetTopics(ctx context.Context, names ...string) (int64, error) {
	query := `UPDATE topics SET searched = 0, search_failures = 0, last_search_error = NULL,
        searched_at = NULL, updated_at = ?`
	args := []any{nowString()}
	if len(names) > 0 {
		query += ` WHERE name IN (` + makePlaceholders(len(names)) + `)`
		for _, name := range names {
			args = append(args, strings.TrimSpace(name))
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset topics: %w", err)
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result, kind string, key any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound(kind, key)
	}
	return nil
}
