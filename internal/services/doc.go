// Package services defines shared helpers consumed by the cycle scheduler and
// the external integrations it drives.
//
// Key responsibilities:
//   - Context helpers that stamp cycle IDs, topic names, and playlist IDs for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that separate fatal
//     configuration problems from transient provider failures.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
