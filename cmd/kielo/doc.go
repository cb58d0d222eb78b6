// Package main hosts the kielo CLI entrypoint and command graph.
//
// Each pipeline stage is exposed as its own subcommand, and `run` chains them
// in order. The command context resolves configuration, the .env file, the
// logger, the manifest and the workspace lock so subcommands only decide which
// stages to drive and how to render the outcome.
//
// Keep this package lean: stage behavior lives in the internal packages and is
// surfaced here through flags and tables.
package main
