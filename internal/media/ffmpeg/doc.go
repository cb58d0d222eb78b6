// Package ffmpeg builds and runs the ffmpeg invocations used by the pipeline:
// vertical canvas composition, still-image video encoding, background music
// mixing, audio concatenation, WAV extraction for transcription and
// subtitle burn-in.
//
// Argument builders are exported so tests can assert on exact command lines
// without executing ffmpeg. Invoker methods write to a temporary sibling and
// promote it on success so an interrupted run never leaves a partial output
// at the final path.
package ffmpeg
