// Package scripting turns each idea into a voiced dialogue script.
//
// One generator call per idea returns a dialogue list whose lines carry the
// ElevenLabs voice ID of the speaking character and a leading [emotion]
// tag. Lines are validated against the idea before the script is written
// to the mode's scripts directory.
package scripting
