// Package assembly encodes each narration track against its illustration
// into a still-image MP4.
package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/media/ffmpeg"
	"github.com/hoangt2/kielo-convo-generator/internal/media/ffprobe"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/stage"
)

// StageName identifies the stage in logs and the manifest.
const StageName = "video"

// Encoder renders a still image over an audio track.
type Encoder interface {
	StillVideo(ctx context.Context, image, audio, output string, canvas ffmpeg.Canvas) error
}

// Prober inspects produced media.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Handler writes videos/<slug>.mp4 for every slug with both inputs.
type Handler struct {
	cfg     *config.Config
	mode    content.Mode
	encoder Encoder
	prober  Prober
	logger  *slog.Logger
}

// NewHandler builds the video stage.
func NewHandler(cfg *config.Config, mode content.Mode, encoder Encoder, prober Prober) *Handler {
	return &Handler{cfg: cfg, mode: mode, encoder: encoder, prober: prober, logger: logging.NewNop()}
}

// SetLogger implements stage.LoggerAware.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// HealthCheck reports whether the media tools are configured.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	if h.encoder == nil || h.prober == nil {
		return stage.Unhealthy(StageName, "ffmpeg/ffprobe not configured")
	}
	return stage.Healthy(StageName)
}

// Prepare lists the mode's scripts.
func (h *Handler) Prepare(context.Context) ([]*stage.Unit, error) {
	return stage.ScriptUnits(h.mode, h.mode.ScriptsDir(h.cfg))
}

// Execute encodes the unit's video when its audio and illustration exist.
func (h *Handler) Execute(ctx context.Context, unit *stage.Unit) error {
	audio := stage.OutputPath(h.cfg.Paths.AudioDir, unit.Slug, ".mp3")
	image := stage.OutputPath(h.cfg.Paths.IllustrationsDir, unit.Slug, ".png")
	if missing := missingInputs(audio, image); len(missing) > 0 {
		unit.Skip("missing " + strings.Join(missing, " and "))
		return nil
	}
	output := stage.OutputPath(h.cfg.Paths.VideoDir, unit.Slug, ".mp4")
	if stage.SkipExisting(unit, manifest.ArtifactVideo, output, h.cfg.Pipeline.Overwrite) {
		return nil
	}

	started := time.Now()
	canvas := ffmpeg.Canvas{Width: h.cfg.Video.Width, Height: h.cfg.Video.Height}
	if err := h.encoder.StillVideo(ctx, image, audio, output, canvas); err != nil {
		return services.Wrap(services.ErrExternalTool, StageName, "encode video", "ffmpeg failed to encode the still video", err)
	}
	duration, err := Verify(ctx, h.prober, output)
	if err != nil {
		_ = os.Remove(output)
		return err
	}
	h.logger.Info("video saved",
		logging.String(logging.FieldEventType, "video_saved"),
		logging.String("path", output),
		logging.Float64("duration_seconds", duration),
		logging.Duration("elapsed", time.Since(started)),
	)
	unit.SetArtifact(manifest.ArtifactVideo, output)
	return nil
}

// Verify probes path and returns its duration when it is playable.
func Verify(ctx context.Context, prober Prober, path string) (float64, error) {
	result, err := prober.Inspect(ctx, path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, StageName, "probe video", fmt.Sprintf("ffprobe failed on %s", filepath.Base(path)), err)
	}
	if err := result.Playable(); err != nil {
		return 0, services.Wrap(services.ErrValidation, StageName, "verify video", fmt.Sprintf("%s is not playable", filepath.Base(path)), err)
	}
	return result.DurationSeconds(), nil
}

func missingInputs(audio, image string) []string {
	var missing []string
	if !fileutil.NonEmpty(audio) {
		missing = append(missing, "audio "+filepath.Base(audio))
	}
	if !fileutil.NonEmpty(image) {
		missing = append(missing, "illustration "+filepath.Base(image))
	}
	return missing
}
