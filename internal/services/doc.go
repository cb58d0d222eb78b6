// Package services defines shared utilities consumed by the pipeline stage
// handlers and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp slugs, stage names, modes, and run
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into external API, upstream artifact, and external tool errors.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
