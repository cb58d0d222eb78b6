package mixing_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/mixing"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/testsupport"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		fade     float64
		start    float64
		length   float64
	}{
		{name: "normal", duration: 30, fade: 3, start: 27, length: 3},
		{name: "longer fade than video", duration: 2, fade: 5, start: 0, length: 2},
		{name: "no fade", duration: 10, fade: 0, start: 10, length: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mix := mixing.Plan(tt.duration, config.Music{Volume: 0.15, FadeOutSeconds: tt.fade})
			if mix.FadeStart != tt.start || mix.FadeOutDuration != tt.length || mix.Volume != 0.15 {
				t.Fatalf("plan = %+v", mix)
			}
		})
	}
}

func TestExecuteMixesMusic(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories(), testsupport.WithMusic())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.VideoDir, "kahvilassa.mp4"), 256)
	media := &testsupport.MediaRecorder{}
	h := mixing.NewHandler(cfg, content.ModeConversation, media.Invoker(), testsupport.Prober(30))

	if health := h.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("health = %+v", health)
	}
	units, err := h.Prepare(context.Background())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := filepath.Join(cfg.Paths.MixedDir, "kahvilassa.mp4")
	if units[0].Artifacts[manifest.ArtifactMixed] != out || !fileutil.NonEmpty(out) {
		t.Fatalf("mixed video missing: %+v", units[0].Artifacts)
	}
	args := strings.Join(media.Calls[0], " ")
	if !strings.Contains(args, cfg.Music.File) || !strings.Contains(args, "afade=t=out:st=") {
		t.Fatalf("unexpected args: %s", args)
	}
}

func TestExecuteCopiesWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	src := filepath.Join(cfg.Paths.VideoDir, "kahvilassa.mp4")
	testsupport.WriteFile(t, src, 512)
	media := &testsupport.MediaRecorder{}
	h := mixing.NewHandler(cfg, content.ModeConversation, media.Invoker(), testsupport.Prober(30))

	units, _ := h.Prepare(context.Background())
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	info, err := os.Stat(filepath.Join(cfg.Paths.MixedDir, "kahvilassa.mp4"))
	if err != nil || info.Size() != 512 {
		t.Fatalf("copied video = %v, %v", info, err)
	}
	if media.CallCount() != 0 {
		t.Fatal("ffmpeg should not run when music is disabled")
	}
	if !fileutil.NonEmpty(src) {
		t.Fatal("source video should be kept")
	}
}

func TestMissingMusicFailsStage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	cfg.Music.Enabled = true
	h := mixing.NewHandler(cfg, content.ModeConversation, (&testsupport.MediaRecorder{}).Invoker(), testsupport.Prober(30))
	if health := h.HealthCheck(context.Background()); health.Ready {
		t.Fatal("health check should fail without a music file")
	}
	if _, err := h.Prepare(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestMissingVideoSkipped(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	h := mixing.NewHandler(cfg, content.ModeConversation, (&testsupport.MediaRecorder{}).Invoker(), testsupport.Prober(30))
	units, _ := h.Prepare(context.Background())
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if reason, skipped := units[0].Skipped(); !skipped || reason != "missing video kahvilassa.mp4" {
		t.Fatalf("skip = %q %v", reason, skipped)
	}
}
