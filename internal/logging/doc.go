// Package logging assembles structured slog loggers and formatting helpers used
// across the kielo pipeline.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code tags log lines with the slug,
// stage, mode, and run ID automatically. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
