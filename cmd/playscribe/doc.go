// Command playscribe is the operator CLI for the playlist transcript catalog.
//
// It runs the scheduler in the foreground (run) or in the background
// (start/stop), performs single cycles, and inspects or adjusts catalog
// state: topics, playlists, stored transcripts, and configuration.
package main
