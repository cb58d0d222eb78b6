// Package notifications delivers pipeline events to ntfy.
//
// The ntfy implementation publishes to the topic configured in config.toml and
// degrades to a no-op when no topic is set. Each event kind can be switched
// off independently (stage failures, stage completions, run completion).
// Workflow code depends only on the Service interface.
package notifications
