// Package workflow drives the playlist lifecycle one bounded cycle at a time.
//
// Each Cycle does exactly one kind of work. While any topic is unsearched it
// runs discovery for one topic: page through search results, skip playlists
// already in the catalog, classify the rest against the topic registry, and
// record them. Once every topic is searched it advances matched playlists by
// checking transcript availability and storing joined transcripts. With
// nothing left to do the cycle reports idle and Run sleeps before the next.
//
// Collaborators are consumed through small interfaces so tests can swap the
// YouTube clients and transcript storage for fakes while keeping the real
// SQLite catalog.
package workflow
