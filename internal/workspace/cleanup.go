package workspace

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
)

// Target is one path the cleanup removes.
type Target struct {
	Path  string
	IsDir bool
}

// CleanupOptions widens what Targets returns.
type CleanupOptions struct {
	// Archived also removes archived subtitles.
	Archived bool
	// Manifest also removes the manifest database.
	Manifest bool
}

// Targets lists the generated paths for cfg. Final videos are listed
// because they are regenerated from the intermediate artifacts.
func Targets(cfg *config.Config, opts CleanupOptions) []Target {
	p := cfg.Paths
	targets := []Target{
		{Path: p.IdeasFile},
		{Path: p.PodcastIdeasFile},
		{Path: p.ScriptsDir, IsDir: true},
		{Path: p.PodcastScriptsDir, IsDir: true},
		{Path: p.IllustrationsDir, IsDir: true},
		{Path: p.AudioDir, IsDir: true},
		{Path: p.VideoDir, IsDir: true},
		{Path: p.MixedDir, IsDir: true},
		{Path: p.FinalDir, IsDir: true},
		{Path: p.SubtitlesDir, IsDir: true},
		{Path: p.WorkDir, IsDir: true},
	}
	if opts.Archived {
		targets = append(targets, Target{Path: p.ArchivedSubtitlesDir, IsDir: true})
	}
	if opts.Manifest {
		db := cfg.ManifestPath()
		targets = append(targets, Target{Path: db}, Target{Path: db + "-wal"}, Target{Path: db + "-shm"})
	}
	return targets
}

// CleanupResult contains the outcome of a cleanup operation.
type CleanupResult struct {
	Removed []string
	Missing []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Clean removes every target. Missing paths are reported, not treated as
// errors.
func Clean(targets []Target, logger *slog.Logger) CleanupResult {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result CleanupResult
	for _, target := range targets {
		path := strings.TrimSpace(target.Path)
		if path == "" {
			continue
		}
		if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
			result.Missing = append(result.Missing, path)
			continue
		}
		var err error
		if target.IsDir {
			err = os.RemoveAll(path)
		} else {
			err = os.Remove(path)
		}
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logger.Warn("failed to remove generated path",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check workspace permissions"),
				logging.String(logging.FieldImpact, "stale artifacts remain and may be skipped as existing"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		logger.Info("removed generated path",
			logging.String("path", path),
			logging.String(logging.FieldEventType, "cleanup"),
		)
	}
	return result
}

// CleanStale removes entries of workDir older than maxAge. Stages remove
// their own work directories, so anything old was left by an interrupted
// run.
func CleanStale(workDir string, maxAge time.Duration, logger *slog.Logger) CleanupResult {
	if logger == nil {
		logger = logging.NewNop()
	}
	var result CleanupResult
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return result
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			result.Errors = append(result.Errors, CleanupError{Path: workDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		path := filepath.Join(workDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logger.Warn("failed to remove stale work entry",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "work_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		logger.Info("removed stale work entry",
			logging.String("path", path),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "work_cleanup"),
		)
	}
	return result
}

// Size returns the total bytes under path. Errors are ignored.
func Size(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if info, infoErr := d.Info(); infoErr == nil {
				size += info.Size()
			}
		}
		return nil
	})
	return size
}
