// Package logs reads daemon log files for the CLI: the last N lines of a run
// log, then new lines as they are appended. Following survives truncation and
// re-pointing of the playscribed.log symlink when a new daemon run starts.
package logs
