// Package textutil provides text normalization helpers shared by topic
// matching, transcript assembly, and the transcript archive.
//
// The primary use cases are:
//   - Folding titles and rule strings to a canonical case for matching
//   - Collapsing caption whitespace before transcripts are joined
//   - Sanitizing playlist identifiers for safe filesystem use
package textutil
