// Package language maps the language codes and names that appear in config
// values, LLM prompts, and transcription requests.
//
// Subtitles take an ISO 639-1 code for the transcriber and a display name for
// the translation prompt; both come from here.
package language
