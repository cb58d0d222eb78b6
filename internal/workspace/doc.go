// Package workspace guards and cleans the directories a pipeline run writes
// into: an flock on the state directory keeps two runs apart, and the
// cleanup helpers remove generated artifacts and stale work directories.
package workspace
