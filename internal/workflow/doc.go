// Package workflow runs the pipeline stages in order for one content mode.
//
// The Manager owns the ordered stage list (ideas, scripts, illustrate,
// audio, video, mix, subtitle), health-checks each handler before use and
// hands it to stageexec for unit dispatch. A run stops after the first
// stage that reports failures, or cleanly when a stage finds no work.
package workflow
