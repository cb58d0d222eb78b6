// Package gemini adapts the Google generative-ai-go client to the pipeline's
// text and image generation contracts.
//
// GenerateJSON requests application/json output constrained by a response
// schema converted from the reflected jsonschema of the target Go type.
// GenerateImage returns the first inline image blob of the first candidate.
//
// Transient API failures (HTTP 408/429/5xx) are retried with the shared
// backoff policy.
package gemini
