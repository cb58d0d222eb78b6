// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry points:
//   - Prober.Inspect: executes ffprobe (or an injected runner) and parses the result
//   - Inspect: convenience wrapper using exec
//
// The assembly and mixing stages use DurationSeconds and VideoStreamCount
// to verify outputs and schedule the music fade.
package ffprobe
