package catalog

import (
	"fmt"
	"strings"
	"time"
)

// TranscriptionStatus records whether every member of a playlist has an English transcript.
type TranscriptionStatus string

const (
	TranscriptionUnknown TranscriptionStatus = "unknown"
	Transcribed          TranscriptionStatus = "transcribed"
	NotTranscribed       TranscriptionStatus = "not_transcribed"
)

// RetrievalStatus records whether the joined transcript has been stored locally.
type RetrievalStatus string

const (
	NotRetrieved    RetrievalStatus = "not_retrieved"
	Retrieved       RetrievalStatus = "retrieved"
	RetrievalFailed RetrievalStatus = "failed"
)

var transcriptionStatuses = []TranscriptionStatus{TranscriptionUnknown, Transcribed, NotTranscribed}

var retrievalStatuses = []RetrievalStatus{NotRetrieved, Retrieved, RetrievalFailed}

// TranscriptionStatuses returns every transcription status in lifecycle order.
func TranscriptionStatuses() []TranscriptionStatus {
	return append([]TranscriptionStatus(nil), transcriptionStatuses...)
}

// RetrievalStatuses returns every retrieval status in lifecycle order.
func RetrievalStatuses() []RetrievalStatus {
	return append([]RetrievalStatus(nil), retrievalStatuses...)
}

// ParseTranscriptionStatus converts a user supplied value into a status.
func ParseTranscriptionStatus(value string) (TranscriptionStatus, bool) {
	normalized := TranscriptionStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range transcriptionStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// ParseRetrievalStatus converts a user supplied value into a status.
func ParseRetrievalStatus(value string) (RetrievalStatus, bool) {
	normalized := RetrievalStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range retrievalStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// TopicState distinguishes a playlist that has not been classified from one
// classified as belonging to no topic.
type TopicState string

const (
	TopicUnresolved TopicState = "unresolved"
	TopicMatched    TopicState = "matched"
	TopicNone       TopicState = "no_topic"
)

// TopicRef is the optional topic association of a playlist.
type TopicRef struct {
	State TopicState
	// ID is set only when State is TopicMatched.
	ID int64
}

// MatchedTopic associates a playlist with the topic row id.
func MatchedTopic(id int64) TopicRef {
	return TopicRef{State: TopicMatched, ID: id}
}

// NoTopic records that no topic claims the playlist.
func NoTopic() TopicRef {
	return TopicRef{State: TopicNone}
}

// Matched reports whether the reference points at a real topic.
func (r TopicRef) Matched() bool {
	return r.State == TopicMatched && r.ID > 0
}

func (r TopicRef) validate() error {
	switch r.State {
	case TopicMatched:
		if r.ID <= 0 {
			return fmt.Errorf("%w: matched topic reference without id", ErrInvalidTransition)
		}
	case TopicNone, TopicUnresolved:
		if r.ID != 0 {
			return fmt.Errorf("%w: %s topic reference carries id %d", ErrInvalidTransition, r.State, r.ID)
		}
	default:
		return fmt.Errorf("%w: unknown topic state %q", ErrInvalidTransition, r.State)
	}
	return nil
}

func (r TopicRef) String() string {
	if r.State == TopicMatched {
		return fmt.Sprintf("matched(%d)", r.ID)
	}
	return string(r.State)
}

// Topic is a searchable subject.
type Topic struct {
	ID              int64
	Name            string
	Searched        bool
	SearchFailures  int
	LastSearchError string
	SearchedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Channel is the owner of one or more playlists.
type Channel struct {
	ID         int64
	ExternalID string
	Name       string
	CreatedAt  time.Time
}

// Playlist is a discovered candidate and its lifecycle state.
type Playlist struct {
	ID         int64
	ExternalID string
	Title      string
	// ChannelID is zero when no channel has been associated.
	ChannelID   int64
	ChannelName string
	Topic       TopicRef
	// TopicName is filled when Topic is matched.
	TopicName           string
	TranscriptionStatus TranscriptionStatus
	RetrievalStatus     RetrievalStatus
	ErrorMessage        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PlaylistFilter narrows ListPlaylists. Empty fields match everything.
type PlaylistFilter struct {
	Transcription TranscriptionStatus
	Retrieval     RetrievalStatus
	Topic         string
	Limit         int
}

// Stats summarizes catalog state for status output.
type Stats struct {
	Topics         int
	TopicsSearched int
	TopicsPending  int
	Channels       int
	Playlists      int
	Unresolved     int
	NoTopic        int
	Transcription  map[TranscriptionStatus]int
	Retrieval      map[RetrievalStatus]int
}
