// Package daemon owns the long-running playscribe process.
//
// A Daemon holds the single-writer flock next to the catalog, records its
// pid, and drives the workflow scheduler until its context is cancelled or
// the scheduler reports a fatal configuration error. One-shot cycles from
// the CLI take the same lock so they never race a running daemon.
package daemon
