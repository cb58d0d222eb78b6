package preflight

import (
	"context"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// RunAll executes the offline checks for cfg: directories, binaries,
// credentials and the music file.
func RunAll(_ context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, Result{Name: status.Name, Passed: status.Satisfied(), Detail: status.Detail})
	}
	results = append(results, CheckCredentials(cfg)...)
	if cfg.Music.Enabled {
		results = append(results, CheckMusicFile(cfg.Music.File))
	}
	return results
}
