// Package content defines the artifacts passed between pipeline stages: the
// idea batch written by the idea generator and the per-slug dialogue scripts
// read by every downstream stage.
//
// The JSON shapes here are the on-disk contract. Field names follow the files
// the pipeline has always produced (ideas.json, podcast_ideas.json,
// scripts/<slug>.json) so existing workspaces keep loading.
package content
