package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/testsupport"
	"github.com/hoangt2/kielo-convo-generator/internal/workspace"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "kielo.lock")
	first, err := workspace.Acquire(path)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := workspace.Acquire(path); !errors.Is(err, workspace.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := workspace.Acquire(path)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	_ = again.Release()
}

func TestCleanRemovesGeneratedPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	testsupport.WriteFile(t, cfg.Paths.IdeasFile, 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.ArchivedSubtitlesDir, "kahvilassa.ass"), 10)
	store := testsupport.MustOpenManifest(t, cfg)
	_ = store.Close()

	result := workspace.Clean(workspace.Targets(cfg, workspace.CleanupOptions{}), logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %+v", result.Errors)
	}
	for _, gone := range []string{cfg.Paths.ScriptsDir, cfg.Paths.IdeasFile, cfg.Paths.WorkDir} {
		if _, err := os.Stat(gone); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s should be removed", gone)
		}
	}
	if _, err := os.Stat(cfg.Paths.ArchivedSubtitlesDir); err != nil {
		t.Fatal("archived subtitles should be kept by default")
	}
	if _, err := os.Stat(cfg.ManifestPath()); err != nil {
		t.Fatal("manifest should be kept by default")
	}
	if len(result.Missing) == 0 {
		t.Fatal("podcast ideas file should be reported missing")
	}

	result = workspace.Clean(workspace.Targets(cfg, workspace.CleanupOptions{Archived: true, Manifest: true}), nil)
	if _, err := os.Stat(cfg.Paths.ArchivedSubtitlesDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("archived subtitles should be removed")
	}
	if _, err := os.Stat(cfg.ManifestPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("manifest should be removed")
	}
}

func TestCleanStale(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "kahvilassa_turns")
	if err := os.Mkdir(old, 0o755); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-3 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	recent := filepath.Join(dir, "subtitled_saunassa.mp4")
	testsupport.WriteFile(t, recent, 10)

	result := workspace.CleanStale(dir, time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("removed = %v", result.Removed)
	}
	if _, err := os.Stat(recent); err != nil {
		t.Fatal("recent entry should remain")
	}
	if r := workspace.CleanStale(filepath.Join(dir, "missing"), time.Hour, nil); len(r.Errors) != 0 {
		t.Fatalf("missing dir should not error: %+v", r.Errors)
	}
}

func TestSize(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a"), 100)
	testsupport.WriteFile(t, filepath.Join(dir, "sub", "b"), 50)
	if got := workspace.Size(dir); got != 150 {
		t.Fatalf("Size = %d", got)
	}
}
