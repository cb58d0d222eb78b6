package assembly_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hoangt2/kielo-convo-generator/internal/assembly"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/media/ffprobe"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/testsupport"
)

func setup(t *testing.T, audio, image bool) (*testsupport.MediaRecorder, *assembly.Handler, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	if audio {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.AudioDir, "kahvilassa.mp3"), 128)
	}
	if image {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.IllustrationsDir, "kahvilassa.png"), 128)
	}
	media := &testsupport.MediaRecorder{}
	h := assembly.NewHandler(cfg, content.ModeConversation, media.Invoker(), testsupport.Prober(12.5))
	return media, h, filepath.Join(cfg.Paths.VideoDir, "kahvilassa.mp4")
}

func TestExecuteEncodesAndVerifies(t *testing.T) {
	media, h, output := setup(t, true, true)
	units, err := h.Prepare(context.Background())
	if err != nil || len(units) != 1 {
		t.Fatalf("prepare = %v, %v", units, err)
	}
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !fileutil.NonEmpty(output) || units[0].Artifacts[manifest.ArtifactVideo] != output {
		t.Fatalf("video not produced: %+v", units[0].Artifacts)
	}
	if args := strings.Join(media.Calls[0], " "); !strings.Contains(args, "-tune stillimage") {
		t.Fatalf("unexpected args: %s", args)
	}
}

func TestExecuteRequiresBothInputs(t *testing.T) {
	tests := []struct {
		name         string
		audio, image bool
		reason       string
	}{
		{name: "no audio", image: true, reason: "missing audio kahvilassa.mp3"},
		{name: "no image", audio: true, reason: "missing illustration kahvilassa.png"},
		{name: "neither", reason: "missing audio kahvilassa.mp3 and illustration kahvilassa.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media, h, output := setup(t, tt.audio, tt.image)
			units, _ := h.Prepare(context.Background())
			if err := h.Execute(context.Background(), units[0]); err != nil {
				t.Fatalf("execute: %v", err)
			}
			reason, skipped := units[0].Skipped()
			if !skipped || reason != tt.reason {
				t.Fatalf("skip = %q %v", reason, skipped)
			}
			if media.CallCount() != 0 || fileutil.Exists(output) {
				t.Fatal("no video should be produced")
			}
		})
	}
}

type silentProber struct{}

func (silentProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio"}}, Format: ffprobe.Format{Duration: "3.0"}}, nil
}

func TestExecuteRejectsUnplayableOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.AudioDir, "kahvilassa.mp3"), 128)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.IllustrationsDir, "kahvilassa.png"), 128)
	h := assembly.NewHandler(cfg, content.ModeConversation, (&testsupport.MediaRecorder{}).Invoker(), silentProber{})

	units, _ := h.Prepare(context.Background())
	if err := h.Execute(context.Background(), units[0]); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if fileutil.Exists(filepath.Join(cfg.Paths.VideoDir, "kahvilassa.mp4")) {
		t.Fatal("unplayable video should be removed")
	}
}
