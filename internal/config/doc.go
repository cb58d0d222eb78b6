// Package config loads, normalizes, and validates kielo configuration data.
//
// It supplies repository defaults, resolves artifact directories against the
// workspace, reads TOML files, and honours environment fallbacks such as
// GEMINI_API_KEY and ELEVENLABS_API_KEY. The Config type centralizes every knob
// the stages and CLI need so artifact locations and external service
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical enum values, and clear validation errors.
package config
