// Package preflight provides readiness checks for the external binaries,
// credentials and filesystem paths the pipeline depends on.
//
// The CLI "kielo doctor" command runs them all; "kielo run" uses RunAll to
// refuse a run that is certain to fail. Optional integrations (music, the
// sheet registry, translation) are only checked when enabled.
package preflight
