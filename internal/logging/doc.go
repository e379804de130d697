// Package logging assembles structured slog loggers and formatting helpers used
// across playscribe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so scheduler code can tag log
// lines with cycle IDs, topics, and playlist IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
