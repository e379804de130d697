// Package transcripts stores joined playlist transcripts as text files.
//
// Each playlist is written to <dir>/<playlist id>.txt with a temp file and
// rename, so a crash never leaves a truncated transcript behind.
package transcripts
