// Package finalize produces the published video for each slug.
//
// For every mixed video it transcribes the narration, optionally translates
// the cues, writes a dual-line subtitle file, burns it into the video, moves
// the result into the final directory and archives the subtitle file.
package finalize
