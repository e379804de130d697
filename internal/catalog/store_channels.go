package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ChannelExists reports whether a channel with the external id is recorded.
func (s *Store) ChannelExists(ctx context.Context, externalID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM channels WHERE external_id = ?`, externalID)
}

// CreateChannel records a channel the first time it is seen. Creating an
// already known channel returns the stored row unchanged.
func (s *Store) CreateChannel(ctx context.Context, externalID, name string) (*Channel, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, errors.New("create channel: external id is required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO channels (external_id, name, created_at) VALUES (?, ?, ?)
         ON CONFLICT(external_id) DO NOTHING`,
		externalID, strings.TrimSpace(name), nowString(),
	); err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}
	channel, err := s.ChannelByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, notFound("channel", externalID)
	}
	return channel, nil
}

// ChannelByExternalID fetches a channel, returning nil when absent.
func (s *Store) ChannelByExternalID(ctx context.Context, externalID string) (*Channel, error) {
	var (
		channel    Channel
		createdRaw sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, created_at FROM channels WHERE external_id = ?`, externalID,
	).Scan(&channel.ID, &channel.ExternalID, &channel.Name, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("channel by external id: %w", err)
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		channel.CreatedAt = created
	}
	return &channel, nil
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return true, nil
}
