// Package llm provides an OpenAI-compatible chat client (OpenRouter by
// default) that satisfies textgen.Generator.
//
// It is selected with llm.provider = "openai_compatible" and serves the idea,
// script and translation calls when Gemini is not used.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, network timeouts and empty
// completions with exponential backoff (base 1s, max 10s, up to 5 attempts).
// Context cancellation aborts retries immediately.
package llm
