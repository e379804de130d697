// Package catalog persists topics, channels, and playlists in SQLite and
// exposes the lifecycle queries the scheduler drives.
//
// A playlist moves through two independent status columns: transcription
// (unknown, transcribed, not_transcribed) and retrieval (not_retrieved,
// retrieved, failed). The store refuses to mark a playlist retrieved or
// failed unless it is transcribed, so callers cannot record an archive for
// a playlist that never had one.
//
// Records are never deleted. Schema changes bump schemaVersion in schema.go;
// an older database has to be removed to adopt the new layout.
package catalog
