package finalize

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
	"github.com/hoangt2/kielo-convo-generator/internal/language"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/media/ffmpeg"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/stage"
	"github.com/hoangt2/kielo-convo-generator/internal/subtitles"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
)

// StageName identifies the stage in logs and the manifest.
const StageName = "subtitle"

// Transcriber turns speech audio into timed segments.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, source, outputDir, language string) ([]subtitles.Segment, error)
}

// Media is the ffmpeg surface the stage needs.
type Media interface {
	ToWAV(ctx context.Context, input, output string) error
	BurnSubtitles(ctx context.Context, video, output string, burn ffmpeg.SubtitleBurn) error
}

// Handler writes final_subtitled_videos/<slug>.mp4 for every mixed video.
type Handler struct {
	cfg         *config.Config
	mode        content.Mode
	transcriber Transcriber
	translator  *Translator
	media       Media
	logger      *slog.Logger
}

// NewHandler builds the subtitle stage. gen may be nil when no translation
// language is configured.
func NewHandler(cfg *config.Config, mode content.Mode, transcriber Transcriber, gen textgen.Generator, media Media) *Handler {
	h := &Handler{cfg: cfg, mode: mode, transcriber: transcriber, media: media, logger: logging.NewNop()}
	if gen != nil {
		h.translator = NewTranslator(gen, cfg.LLM.TranslationModel)
	}
	return h
}

// SetLogger implements stage.LoggerAware.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// HealthCheck reports whether transcription, translation and ffmpeg are wired.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	switch {
	case h.transcriber == nil:
		return stage.Unhealthy(StageName, "transcriber not configured")
	case h.media == nil:
		return stage.Unhealthy(StageName, "ffmpeg not configured")
	case h.translating() && h.translator == nil:
		return stage.Unhealthy(StageName, "translation requested but no text generator configured")
	}
	return stage.Healthy(StageName)
}

// Prepare lists the mode's scripts.
func (h *Handler) Prepare(context.Context) ([]*stage.Unit, error) {
	return stage.ScriptUnits(h.mode, h.mode.ScriptsDir(h.cfg))
}

// Execute subtitles, burns and archives the unit's video.
func (h *Handler) Execute(ctx context.Context, unit *stage.Unit) error {
	video := stage.OutputPath(h.cfg.Paths.MixedDir, unit.Slug, ".mp4")
	if !fileutil.NonEmpty(video) {
		unit.Skip("missing mixed video " + filepath.Base(video))
		return nil
	}
	final := stage.OutputPath(h.cfg.Paths.FinalDir, unit.Slug, ".mp4")
	if stage.SkipExisting(unit, manifest.ArtifactFinal, final, h.cfg.Pipeline.Overwrite) {
		return h.archiveLeftovers(unit)
	}

	started := time.Now()
	work := filepath.Join(h.cfg.Paths.WorkDir, unit.Slug+"_subtitle")
	if err := os.MkdirAll(work, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, StageName, "stage work", "cannot create work directory", err)
	}
	burned := filepath.Join(h.cfg.Paths.WorkDir, "subtitled_"+unit.Slug+".mp4")
	defer func() {
		_ = os.RemoveAll(work)
		_ = os.Remove(burned)
	}()

	segments, err := h.transcribe(ctx, unit.Slug, video, work)
	if err != nil {
		return err
	}
	if h.translating() {
		if h.translator == nil {
			return services.Wrap(services.ErrConfiguration, StageName, "translate", "translation requested but no text generator configured", nil)
		}
		segments, err = h.translator.Translate(ctx, segments, h.cfg.Subtitles.Language, h.cfg.Subtitles.TranslateTo)
		if err != nil {
			return err
		}
	}

	format := strings.ToLower(h.cfg.Subtitles.Format)
	subtitlePath := stage.OutputPath(h.cfg.Paths.SubtitlesDir, unit.Slug, subtitles.Extension(format))
	style := subtitles.Style{
		FontName: h.cfg.Subtitles.FontName,
		FontSize: h.cfg.Subtitles.FontSize,
		Width:    h.cfg.Video.Width,
		Height:   h.cfg.Video.Height,
	}
	if err := subtitles.WriteFile(subtitlePath, format, segments, style); err != nil {
		return services.Wrap(services.ErrConfiguration, StageName, "write subtitles", fmt.Sprintf("cannot write %s", subtitlePath), err)
	}

	burn := ffmpeg.SubtitleBurn{
		Path:     subtitlePath,
		ASS:      format != config.SubtitleFormatSRT,
		FontName: style.FontName,
		FontSize: style.FontSize,
	}
	if err := h.media.BurnSubtitles(ctx, video, burned, burn); err != nil {
		return services.Wrap(services.ErrExternalTool, StageName, "burn subtitles", "ffmpeg failed to burn subtitles", err)
	}
	// The subtitle is archived first: a published final video makes the
	// unit skip on the next run.
	archived, err := h.archive(subtitlePath)
	if err != nil {
		return err
	}
	unit.SetArtifact(manifest.ArtifactSubtitle, archived)
	if err := fileutil.MoveFile(burned, final); err != nil {
		return services.Wrap(services.ErrConfiguration, StageName, "publish video", fmt.Sprintf("cannot move video into %s", h.cfg.Paths.FinalDir), err)
	}
	unit.SetArtifact(manifest.ArtifactFinal, final)

	h.logger.Info("final video saved",
		logging.String(logging.FieldEventType, "final_saved"),
		logging.String("path", final),
		logging.String("subtitles", archived),
		logging.Int("cues", len(segments)),
		logging.Bool("translated", h.translating()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (h *Handler) archive(subtitlePath string) (string, error) {
	archived := filepath.Join(h.cfg.Paths.ArchivedSubtitlesDir, filepath.Base(subtitlePath))
	if err := fileutil.MoveFile(subtitlePath, archived); err != nil {
		return "", services.Wrap(services.ErrConfiguration, StageName, "archive subtitles", fmt.Sprintf("cannot archive %s", filepath.Base(subtitlePath)), err)
	}
	return archived, nil
}

// archiveLeftovers moves subtitles still sitting next to an already
// published final video, for example after an interrupted earlier run.
func (h *Handler) archiveLeftovers(unit *stage.Unit) error {
	for _, format := range []string{config.SubtitleFormatASS, config.SubtitleFormatSRT} {
		leftover := stage.OutputPath(h.cfg.Paths.SubtitlesDir, unit.Slug, subtitles.Extension(format))
		if !fileutil.Exists(leftover) {
			continue
		}
		archived, err := h.archive(leftover)
		if err != nil {
			return err
		}
		unit.SetArtifact(manifest.ArtifactSubtitle, archived)
		h.logger.Info("archived leftover subtitles",
			logging.String(logging.FieldEventType, "subtitle_archived"),
			logging.String("path", archived),
		)
	}
	return nil
}

func (h *Handler) translating() bool {
	return strings.TrimSpace(h.cfg.Subtitles.TranslateTo) != ""
}

// transcribe prefers the clean narration track and falls back to the audio
// of the mixed video.
func (h *Handler) transcribe(ctx context.Context, slug, video, work string) ([]subtitles.Segment, error) {
	source := stage.OutputPath(h.cfg.Paths.AudioDir, slug, ".mp3")
	if !fileutil.NonEmpty(source) {
		logging.WarnWithContext(h.logger, "narration audio missing; transcribing mixed video", "transcribe_fallback",
			logging.String("video", video),
			logging.String(logging.FieldImpact, "background music may reduce transcription accuracy"),
			logging.String(logging.FieldErrorHint, "rerun the audio stage to restore the narration track"),
		)
		source = video
	}
	wav := filepath.Join(work, slug+".wav")
	if err := h.media.ToWAV(ctx, source, wav); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, StageName, "extract audio", "ffmpeg failed to extract transcription audio", err)
	}

	started := time.Now()
	lang := language.ToISO2(h.cfg.Subtitles.Language)
	segments, err := h.transcriber.Transcribe(ctx, wav, work, lang)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, StageName, "transcribe", fmt.Sprintf("%s transcription failed", h.transcriber.Name()), err)
	}
	segments = subtitles.Normalize(segments)
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, StageName, "transcribe", "transcription produced no speech segments", nil)
	}
	h.logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "transcribed"),
		logging.String("provider", h.transcriber.Name()),
		logging.String("language", lang),
		logging.Int("segments", len(segments)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return segments, nil
}
