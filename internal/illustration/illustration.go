// Package illustration renders one scene image per script and places it on
// the portrait video canvas.
package illustration

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
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/stage"
)

// StageName identifies the stage in logs and the manifest.
const StageName = "illustrate"

const sampleWords = 40

// ImageGenerator produces an image for a prompt and reports its MIME type.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error)
}

// Composer places a source image on the output canvas.
type Composer interface {
	ComposeCanvas(ctx context.Context, image, output string, canvas ffmpeg.Canvas) error
}

// Handler generates illustrations/<slug>.png for every script.
type Handler struct {
	cfg      *config.Config
	mode     content.Mode
	images   ImageGenerator
	composer Composer
	logger   *slog.Logger
}

// NewHandler builds the illustration stage.
func NewHandler(cfg *config.Config, mode content.Mode, images ImageGenerator, composer Composer) *Handler {
	return &Handler{cfg: cfg, mode: mode, images: images, composer: composer, logger: logging.NewNop()}
}

// SetLogger implements stage.LoggerAware.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// HealthCheck reports whether the image and canvas tools are configured.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	switch {
	case h.images == nil:
		return stage.Unhealthy(StageName, "image generator not configured")
	case h.composer == nil:
		return stage.Unhealthy(StageName, "ffmpeg not configured")
	}
	return stage.Healthy(StageName)
}

// Prepare lists the mode's scripts.
func (h *Handler) Prepare(context.Context) ([]*stage.Unit, error) {
	return stage.ScriptUnits(h.mode, h.mode.ScriptsDir(h.cfg))
}

// Execute generates and composes the unit's illustration.
func (h *Handler) Execute(ctx context.Context, unit *stage.Unit) error {
	script, err := stage.LoadScript(unit)
	if err != nil {
		return err
	}
	output := stage.OutputPath(h.cfg.Paths.IllustrationsDir, unit.Slug, ".png")
	if stage.SkipExisting(unit, manifest.ArtifactIllustration, output, h.cfg.Pipeline.Overwrite) {
		return nil
	}

	started := time.Now()
	prompt := Prompt(h.cfg.Illustration.Style, script)
	h.logger.Debug("image prompt", logging.String("prompt", truncate(prompt, 250)))
	data, mime, err := h.images.GenerateImage(ctx, h.cfg.Illustration.Model, prompt)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, StageName, "generate image", "image generation failed", err)
	}

	source := filepath.Join(h.cfg.Paths.WorkDir, unit.Slug+".source"+extensionFor(mime))
	if err := fileutil.WriteFileAtomic(source, data, 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, StageName, "stage image", "cannot write generated image", err)
	}
	defer func() { _ = os.Remove(source) }()

	canvas := ffmpeg.Canvas{Width: h.cfg.Video.Width, Height: h.cfg.Video.Height}
	if err := h.composer.ComposeCanvas(ctx, source, output, canvas); err != nil {
		return services.Wrap(services.ErrExternalTool, StageName, "compose canvas", "ffmpeg failed to compose the illustration", err)
	}
	h.logger.Info("illustration saved",
		logging.String(logging.FieldEventType, "illustration_saved"),
		logging.String("path", output),
		logging.Int("image_bytes", len(data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	unit.SetArtifact(manifest.ArtifactIllustration, output)
	return nil
}

// Prompt builds the image prompt for script.
func Prompt(style string, script content.Script) string {
	chars := make([]string, 0, len(script.Idea.Characters))
	for _, c := range script.Idea.Characters {
		chars = append(chars, fmt.Sprintf("%s (%s, %s)", orDefault(c.Name, "Unnamed"), orDefault(c.Gender, "unspecified gender"), orDefault(c.Age, "unspecified age")))
	}
	var b strings.Builder
	b.WriteString("Create a visually engaging digital illustration. ")
	if s := strings.TrimSpace(style); s != "" {
		b.WriteString(s)
		b.WriteString(" ")
	}
	b.WriteString("Do not include any text or captions in the image. Ensure the image is a single, clear illustration. ")
	fmt.Fprintf(&b, "The language of the script is %s, and the tone is %s. ", script.Language(), script.Tone())
	fmt.Fprintf(&b, "Scene description: %s ", orDefault(script.Idea.Summary(), "No explicit description provided."))
	fmt.Fprintf(&b, "The characters involved are: %s. ", orDefault(strings.Join(chars, "; "), "unspecified characters"))
	b.WriteString("Depict them naturally in a setting that fits the tone and context. ")
	fmt.Fprintf(&b, "The mood and expressions should reflect the feel of this sample dialogue: '%s'.", script.Words(sampleWords))
	return b.String()
}

func extensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
