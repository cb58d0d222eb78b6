package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose workspace lives in a unique temp
// directory. Every path is absolute, notifications are off and music is
// disabled unless an option turns it on.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	p := &cfgVal.Paths
	p.WorkspaceDir = base
	for _, field := range []*string{
		&p.StateDir, &p.WorkDir, &p.IdeasFile, &p.PodcastIdeasFile,
		&p.ScriptsDir, &p.PodcastScriptsDir, &p.IllustrationsDir, &p.AudioDir,
		&p.VideoDir, &p.MixedDir, &p.FinalDir, &p.SubtitlesDir, &p.ArchivedSubtitlesDir,
	} {
		*field = filepath.Join(base, *field)
	}
	cfgVal.LLM.APIKey = "test"
	cfgVal.ElevenLabs.APIKey = "test"
	cfgVal.Music.Enabled = false
	cfgVal.Music.File = filepath.Join(base, "assets", "background_music.mp3")
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithMusic enables mixing with a placeholder music file written into the workspace.
func WithMusic() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Music.Enabled = true
		WriteFile(b.t, b.cfg.Music.File, 64)
	}
}

// WithOverwrite sets pipeline.overwrite.
func WithOverwrite() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Overwrite = true
	}
}

// WithDirectories creates every workspace directory up front.
func WithDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default kielo external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", "uvx"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.WorkspaceDir
}
