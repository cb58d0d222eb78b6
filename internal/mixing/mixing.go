// Package mixing layers background music under each assembled video.
package mixing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
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
const StageName = "mix"

// Mixer overlays music on a video's audio.
type Mixer interface {
	MixMusic(ctx context.Context, video, music, output string, mix ffmpeg.MusicMix) error
}

// Prober reads media duration.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Handler writes mixed_videos/<slug>.mp4 for every assembled video.
type Handler struct {
	cfg    *config.Config
	mode   content.Mode
	mixer  Mixer
	prober Prober
	logger *slog.Logger
}

// NewHandler builds the mix stage.
func NewHandler(cfg *config.Config, mode content.Mode, mixer Mixer, prober Prober) *Handler {
	return &Handler{cfg: cfg, mode: mode, mixer: mixer, prober: prober, logger: logging.NewNop()}
}

// SetLogger implements stage.LoggerAware.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// HealthCheck verifies the music file when mixing is enabled.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	if err := h.checkMusic(); err != nil {
		return stage.Unhealthy(StageName, err.Error())
	}
	if h.cfg.Music.Enabled && (h.mixer == nil || h.prober == nil) {
		return stage.Unhealthy(StageName, "ffmpeg/ffprobe not configured")
	}
	return stage.Healthy(StageName)
}

// Prepare fails the stage when the music file is missing, then lists the
// mode's scripts.
func (h *Handler) Prepare(context.Context) ([]*stage.Unit, error) {
	if err := h.checkMusic(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageName, "check music", err.Error(), nil)
	}
	return stage.ScriptUnits(h.mode, h.mode.ScriptsDir(h.cfg))
}

// Execute mixes, or copies when music is disabled, the unit's video.
func (h *Handler) Execute(ctx context.Context, unit *stage.Unit) error {
	video := stage.OutputPath(h.cfg.Paths.VideoDir, unit.Slug, ".mp4")
	if !fileutil.NonEmpty(video) {
		unit.Skip("missing video " + filepath.Base(video))
		return nil
	}
	output := stage.OutputPath(h.cfg.Paths.MixedDir, unit.Slug, ".mp4")
	if stage.SkipExisting(unit, manifest.ArtifactMixed, output, h.cfg.Pipeline.Overwrite) {
		return nil
	}

	started := time.Now()
	if !h.cfg.Music.Enabled {
		if err := copyVideo(video, output); err != nil {
			return services.Wrap(services.ErrConfiguration, StageName, "copy video", "cannot copy video into the mixed directory", err)
		}
		h.logger.Info("music disabled; video copied",
			logging.String(logging.FieldEventType, "mix_copied"),
			logging.String("path", output),
		)
		unit.SetArtifact(manifest.ArtifactMixed, output)
		return nil
	}

	probe, err := h.prober.Inspect(ctx, video)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, StageName, "probe video", fmt.Sprintf("ffprobe failed on %s", filepath.Base(video)), err)
	}
	duration := probe.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return services.Wrap(services.ErrValidation, StageName, "probe video", fmt.Sprintf("%s has no usable duration", filepath.Base(video)), nil)
	}
	mix := Plan(duration, h.cfg.Music)
	if err := h.mixer.MixMusic(ctx, video, h.cfg.Music.File, output, mix); err != nil {
		return services.Wrap(services.ErrExternalTool, StageName, "mix music", "ffmpeg failed to mix background music", err)
	}
	h.logger.Info("mixed video saved",
		logging.String(logging.FieldEventType, "mix_saved"),
		logging.String("path", output),
		logging.Float64("duration_seconds", duration),
		logging.Float64("fade_start", mix.FadeStart),
		logging.Duration("elapsed", time.Since(started)),
	)
	unit.SetArtifact(manifest.ArtifactMixed, output)
	return nil
}

// Plan derives the mix parameters for a video of the given duration. The
// fade never starts before zero and never runs longer than the video.
func Plan(duration float64, music config.Music) ffmpeg.MusicMix {
	fade := music.FadeOutSeconds
	if fade < 0 {
		fade = 0
	}
	if fade > duration {
		fade = duration
	}
	return ffmpeg.MusicMix{
		Volume:          music.Volume,
		FadeStart:       math.Max(0, duration-fade),
		FadeOutDuration: fade,
	}
}

func (h *Handler) checkMusic() error {
	if !h.cfg.Music.Enabled {
		return nil
	}
	if !fileutil.NonEmpty(h.cfg.Music.File) {
		return fmt.Errorf("music file %s not found", h.cfg.Music.File)
	}
	return nil
}

func copyVideo(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := fileutil.TempPath(dst)
	if err := fileutil.CopyFile(src, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return fileutil.Promote(tmp, dst)
}
