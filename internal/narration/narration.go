// Package narration synthesizes the dialogue audio for each script.
package narration

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/services/elevenlabs"
	"github.com/hoangt2/kielo-convo-generator/internal/stage"
)

// StageName identifies the stage in logs and the manifest.
const StageName = "audio"

// Synthesizer turns dialogue into MP3 audio.
type Synthesizer interface {
	Dialogue(ctx context.Context, turns []elevenlabs.Turn) ([]byte, error)
	Speech(ctx context.Context, voiceID, text string) ([]byte, error)
}

// Concatenator joins per-turn audio files in order.
type Concatenator interface {
	ConcatAudio(ctx context.Context, inputs []string, output string) error
}

// Handler writes mp3/<slug>.mp3 for every script.
type Handler struct {
	cfg    *config.Config
	mode   content.Mode
	synth  Synthesizer
	concat Concatenator
	logger *slog.Logger
}

// NewHandler builds the audio stage. concat is only used in turns mode.
func NewHandler(cfg *config.Config, mode content.Mode, synth Synthesizer, concat Concatenator) *Handler {
	return &Handler{cfg: cfg, mode: mode, synth: synth, concat: concat, logger: logging.NewNop()}
}

// SetLogger implements stage.LoggerAware.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// HealthCheck reports whether synthesis is configured.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	if h.synth == nil {
		return stage.Unhealthy(StageName, "speech synthesizer not configured")
	}
	if h.turns() && h.concat == nil {
		return stage.Unhealthy(StageName, "ffmpeg required for turns mode")
	}
	return stage.Healthy(StageName)
}

// Prepare lists the mode's scripts.
func (h *Handler) Prepare(context.Context) ([]*stage.Unit, error) {
	return stage.ScriptUnits(h.mode, h.mode.ScriptsDir(h.cfg))
}

// Execute synthesizes the unit's dialogue.
func (h *Handler) Execute(ctx context.Context, unit *stage.Unit) error {
	script, err := stage.LoadScript(unit)
	if err != nil {
		return err
	}
	turns := Turns(script, h.turns())
	if len(turns) == 0 {
		unit.Skip("dialogue list is empty")
		return nil
	}
	output := stage.OutputPath(h.cfg.Paths.AudioDir, unit.Slug, ".mp3")
	if stage.SkipExisting(unit, manifest.ArtifactAudio, output, h.cfg.Pipeline.Overwrite) {
		return nil
	}

	started := time.Now()
	if h.turns() {
		err = h.synthesizeTurns(ctx, unit.Slug, turns, output)
	} else {
		err = h.synthesizeDialogue(ctx, turns, output)
	}
	if err != nil {
		return err
	}
	size := int64(0)
	if info, statErr := os.Stat(output); statErr == nil {
		size = info.Size()
	}
	h.logger.Info("audio saved",
		logging.String(logging.FieldEventType, "audio_saved"),
		logging.String("path", output),
		logging.Int("turns", len(turns)),
		logging.String("size", humanize.Bytes(uint64(size))),
		logging.Duration("elapsed", time.Since(started)),
	)
	unit.SetArtifact(manifest.ArtifactAudio, output)
	return nil
}

func (h *Handler) turns() bool {
	return h.cfg.ElevenLabs.Mode == config.ElevenLabsModeTurns
}

func (h *Handler) synthesizeDialogue(ctx context.Context, turns []elevenlabs.Turn, output string) error {
	audio, err := h.synth.Dialogue(ctx, turns)
	if err != nil {
		return services.Wrap(services.ErrExternalAPI, StageName, "text to dialogue", "dialogue synthesis failed", err)
	}
	if err := fileutil.WriteFileAtomic(output, audio, 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, StageName, "save audio", fmt.Sprintf("cannot write %s", output), err)
	}
	return nil
}

func (h *Handler) synthesizeTurns(ctx context.Context, slug string, turns []elevenlabs.Turn, output string) error {
	dir := filepath.Join(h.cfg.Paths.WorkDir, slug+"_turns")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, StageName, "stage turns", "cannot create turn directory", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	parts := make([]string, 0, len(turns))
	for i, turn := range turns {
		audio, err := h.synth.Speech(ctx, turn.VoiceID, turn.Text)
		if err != nil {
			return services.Wrap(services.ErrExternalAPI, StageName, "text to speech", fmt.Sprintf("turn %d synthesis failed", i+1), err)
		}
		part := filepath.Join(dir, fmt.Sprintf("%03d.mp3", i+1))
		if err := os.WriteFile(part, audio, 0o644); err != nil {
			return services.Wrap(services.ErrConfiguration, StageName, "stage turns", "cannot write turn audio", err)
		}
		parts = append(parts, part)
		h.logger.Debug("turn synthesized", logging.Int("turn", i+1), logging.Int("bytes", len(audio)))
	}
	if err := h.concat.ConcatAudio(ctx, parts, output); err != nil {
		return services.Wrap(services.ErrExternalTool, StageName, "concat turns", "ffmpeg failed to join turn audio", err)
	}
	return nil
}

// Turns converts the script's dialogue into synthesis inputs, dropping
// lines without text. Emotion tags are kept for the dialogue model and
// stripped for per-turn speech, which would otherwise read them aloud.
func Turns(script content.Script, perTurn bool) []elevenlabs.Turn {
	turns := make([]elevenlabs.Turn, 0, len(script.DialogueList))
	for _, line := range script.DialogueList {
		if content.StripEmotionTag(line.Text) == "" {
			continue
		}
		text := line.Text
		if perTurn {
			text = content.StripEmotionTag(text)
		}
		turns = append(turns, elevenlabs.Turn{Text: text, VoiceID: line.VoiceID})
	}
	return turns
}
