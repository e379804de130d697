// Package topics holds the registry of known topics and their match rules.
//
// A Registry is built once from the topic rules file and is immutable
// afterwards. Resolve maps a candidate playlist title onto at most one topic:
// titles that match several topics are narrowed through the configured
// disambiguation priorities, and anything still ambiguous is reported as a
// configuration error rather than guessed.
package topics
