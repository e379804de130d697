package catalog

import (
	"context"
	"fmt"
)

// Stats returns topic, channel, and playlist counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{
		Transcription: make(map[TranscriptionStatus]int, len(transcriptionStatuses)),
		Retrieval:     make(map[RetrievalStatus]int, len(retrievalStatuses)),
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(searched), 0) FROM topics`,
	).Scan(&stats.Topics, &stats.TopicsSearched); err != nil {
		return Stats{}, fmt.Errorf("topic stats: %w", err)
	}
	stats.TopicsPending = stats.Topics - stats.TopicsSearched

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM channels`).Scan(&stats.Channels); err != nil {
		return Stats{}, fmt.Errorf("channel stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT topic_state, transcription_status, retrieval_status, COUNT(1)
         FROM playlists GROUP BY topic_state, transcription_status, retrieval_status`)
	if err != nil {
		return Stats{}, fmt.Errorf("playlist stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			state         TopicState
			transcription TranscriptionStatus
			retrieval     RetrievalStatus
			count         int
		)
		if err := rows.Scan(&state, &transcription, &retrieval, &count); err != nil {
			return Stats{}, err
		}
		stats.Playlists += count
		switch state {
		case TopicUnresolved:
			stats.Unresolved += count
		case TopicNone:
			stats.NoTopic += count
		}
		stats.Transcription[transcription] += count
		stats.Retrieval[retrieval] += count
	}
	return stats, rows.Err()
}
