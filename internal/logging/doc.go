// Package logging wires log/slog with the handlers and attribute conventions
// used across the pipeline: a console handler for interactive use, a JSON
// handler for machine consumption, per-run session directories, and context
// helpers that stamp run/stage/file fields onto every record.
package logging
