// Package services defines shared utilities consumed by the sorting pipeline.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and in-flight
//     file paths for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline's taxonomy: degradable, per-file recoverable,
//     run-fatal, and ledger conflicts.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform.
package services
