package services

import "context"

type contextKey string

const (
	cycleIDKey    contextKey = "cycle_id"
	topicKey      contextKey = "topic"
	playlistIDKey contextKey = "playlist_id"
)

// WithCycleID annotates context with the scheduler cycle correlation identifier.
func WithCycleID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFromContext extracts the cycle identifier if present.
func CycleIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(cycleIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTopic annotates context with the topic being searched.
func WithTopic(ctx context.Context, topic string) context.Context {
	if topic == "" {
		return ctx
	}
	return context.WithValue(ctx, topicKey, topic)
}

// TopicFromContext returns the topic name if present.
func TopicFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(topicKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithPlaylistID annotates context with the playlist being advanced.
func WithPlaylistID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, playlistIDKey, id)
}

// PlaylistIDFromContext returns the playlist identifier if present.
func PlaylistIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(playlistIDKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
