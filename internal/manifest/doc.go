// Package manifest records per-slug pipeline state in SQLite.
//
// Each item row tracks the artifacts a slug has produced (script,
// illustration, audio, video, mixed video, final video, archived subtitle)
// along with the last stage failure. stage_runs rows record one invocation
// of a stage with its unit counts so `kielo runs` can show history.
//
// The filesystem remains the hand-off medium between stages; the manifest
// only mirrors it. Deleting the database loses history, never work.
// Schema changes bump schemaVersion in schema.go; users clear the manifest
// to adopt a new schema.
package manifest
