package catalog

import (
	"database/sql"
	"errors"
	"time"
)

type rowScanner interface{ Scan(dest ...any) error }

const topicColumns = "id, name, searched, search_failures, last_search_error, searched_at, created_at, updated_at"

func scanTopic(scanner rowScanner) (*Topic, error) {
	var (
		topic      Topic
		searched   int64
		lastError  sql.NullString
		searchedAt sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&topic.ID,
		&topic.Name,
		&searched,
		&topic.SearchFailures,
		&lastError,
		&searchedAt,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	topic.Searched = searched != 0
	topic.LastSearchError = lastError.String
	if searchedAt.Valid {
		if ts, err := parseTimeString(searchedAt.String); err == nil {
			topic.SearchedAt = &ts
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		topic.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		topic.UpdatedAt = updated
	}
	return &topic, nil
}

const playlistColumns = `p.id, p.external_id, p.title, p.channel_id, c.name, p.topic_state, p.topic_id, t.name,
    p.transcription_status, p.retrieval_status, p.error_message, p.created_at, p.updated_at`

const playlistFrom = ` FROM playlists p
    LEFT JOIN channels c ON c.id = p.channel_id
    LEFT JOIN topics t ON t.id = p.topic_id`

func scanPlaylist(scanner rowScanner) (*Playlist, error) {
	var (
		playlist      Playlist
		channelID     sql.NullInt64
		channelName   sql.NullString
		topicState    string
		topicID       sql.NullInt64
		topicName     sql.NullString
		transcription string
		retrieval     string
		errorMessage  sql.NullString
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&playlist.ID,
		&playlist.ExternalID,
		&playlist.Title,
		&channelID,
		&channelName,
		&topicState,
		&topicID,
		&topicName,
		&transcription,
		&retrieval,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	playlist.ChannelID = channelID.Int64
	playlist.ChannelName = channelName.String
	playlist.Topic = TopicRef{State: TopicState(topicState), ID: topicID.Int64}
	playlist.TopicName = topicName.String
	playlist.TranscriptionStatus = TranscriptionStatus(transcription)
	playlist.RetrievalStatus = RetrievalStatus(retrieval)
	playlist.ErrorMessage = errorMessage.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		playlist.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		playlist.UpdatedAt = updated
	}
	return &playlist, nil
}

func scanPlaylists(rows *sql.Rows) ([]Playlist, error) {
	defer rows.Close()
	var playlists []Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *playlist)
	}
	return playlists, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
