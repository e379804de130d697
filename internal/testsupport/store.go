package testsupport

import (
	"context"
	"testing"

	"playscribe/internal/catalog"
	"playscribe/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustSyncTopics registers topic names and returns them keyed by name.
func MustSyncTopics(t testing.TB, store *catalog.Store, names ...string) map[string]catalog.Topic {
	t.Helper()

	ctx := context.Background()
	if _, err := store.SyncTopics(ctx, names); err != nil {
		t.Fatalf("store.SyncTopics: %v", err)
	}
	topics, err := store.ListTopics(ctx)
	if err != nil {
		t.Fatalf("store.ListTopics: %v", err)
	}
	byName := make(map[string]catalog.Topic, len(topics))
	for _, topic := range topics {
		byName[topic.Name] = topic
	}
	return byName
}

// MustCreatePlaylist inserts a playlist and returns it.
func MustCreatePlaylist(t testing.TB, store *catalog.Store, externalID, title string) *catalog.Playlist {
	t.Helper()

	playlist, err := store.CreatePlaylist(context.Background(), externalID, title)
	if err != nil {
		t.Fatalf("store.CreatePlaylist: %v", err)
	}
	return playlist
}
