package scripting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/stage"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
)

// StageName identifies the stage in logs and the manifest.
const StageName = "scripts"

// Handler writes one script per idea.
type Handler struct {
	cfg      *config.Config
	mode     content.Mode
	gen      textgen.Generator
	logger   *slog.Logger
	metadata content.Metadata
}

// NewHandler builds the script stage.
func NewHandler(cfg *config.Config, mode content.Mode, gen textgen.Generator) *Handler {
	return &Handler{cfg: cfg, mode: mode, gen: gen, logger: logging.NewNop()}
}

// SetLogger implements stage.LoggerAware.
func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// HealthCheck reports whether a generator is configured.
func (h *Handler) HealthCheck(context.Context) stage.Health {
	if h.gen == nil {
		return stage.Unhealthy(StageName, "text generator not configured")
	}
	return stage.Healthy(StageName)
}

// Prepare loads the mode's ideas file and returns one unit per idea.
func (h *Handler) Prepare(context.Context) ([]*stage.Unit, error) {
	path := h.mode.IdeasFile(h.cfg)
	set, err := content.LoadIdeaSet(path, h.mode)
	if err != nil {
		return nil, err
	}
	h.metadata = set.Metadata
	units := make([]*stage.Unit, 0, len(set.Ideas))
	for i := range set.Ideas {
		idea := set.Ideas[i]
		slug := idea.Slug()
		if slug == "" {
			logging.WarnWithContext(h.logger, "idea without title ignored", "idea_invalid",
				logging.Int("index", i),
				logging.String(logging.FieldImpact, "no script is generated for this idea"),
				logging.String(logging.FieldErrorHint, "fix the ideas file or rerun the ideas stage"),
			)
			continue
		}
		unit := stage.NewUnit(h.mode, slug, path)
		unit.Title = idea.Title
		unit.Idea = &idea
		units = append(units, unit)
	}
	return units, nil
}

// Execute generates, validates and saves the unit's script.
func (h *Handler) Execute(ctx context.Context, unit *stage.Unit) error {
	if unit.Idea == nil {
		return services.Wrap(services.ErrValidation, StageName, "execute", "unit has no idea attached", nil)
	}
	output := stage.OutputPath(h.mode.ScriptsDir(h.cfg), unit.Slug, ".json")
	if stage.SkipExisting(unit, manifest.ArtifactScript, output, h.cfg.Pipeline.Overwrite) {
		return nil
	}
	idea := *unit.Idea
	if len(idea.VoiceIDs()) == 0 {
		return services.Wrap(services.ErrValidation, StageName, "validate idea",
			fmt.Sprintf("idea %q has no voice IDs; rerun the ideas stage", idea.Title), nil)
	}

	req := textgen.Request{
		Operation:   StageName,
		Model:       h.cfg.LLM.ScriptModel,
		Schema:      textgen.SchemaFor[dialogueResponse](),
		Temperature: textgen.Temperature(h.cfg.LLM.ScriptTemperature),
	}
	if h.mode == content.ModePodcast {
		req.System, req.Prompt = podcastSystem, podcastPrompt(idea, h.metadata)
	} else {
		req.System, req.Prompt = conversationSystem, conversationPrompt(idea, h.metadata)
	}

	started := time.Now()
	resp, raw, err := textgen.Generate[dialogueResponse](ctx, h.gen, req)
	if err != nil {
		if raw != "" {
			return services.Wrap(services.ErrValidation, StageName, "decode script", "script generator returned malformed JSON", err)
		}
		return services.Wrap(services.ErrExternalAPI, StageName, "generate script", "script generation failed", err)
	}
	lines, remapped, err := Normalize(idea, resp.DialogueList)
	if err != nil {
		return services.Wrap(services.ErrValidation, StageName, "validate script", err.Error(), nil)
	}
	if remapped > 0 {
		logging.WarnWithContext(h.logger, "remapped unknown voice IDs", "voice_remapped",
			logging.Int("lines", remapped),
			logging.String(logging.FieldImpact, "lines were reassigned by speaker name"),
			logging.String(logging.FieldErrorHint, "review the script before narration"),
		)
	}

	script := content.Script{Metadata: h.metadata, Idea: idea, DialogueList: lines}
	if err := script.Save(output); err != nil {
		return services.Wrap(services.ErrConfiguration, StageName, "save script", fmt.Sprintf("cannot write %s", output), err)
	}
	h.logger.Info("script saved",
		logging.String(logging.FieldEventType, "script_saved"),
		logging.String("path", output),
		logging.Int("lines", len(lines)),
		logging.Duration("elapsed", time.Since(started)),
	)
	unit.SetArtifact(manifest.ArtifactScript, output)
	return nil
}

// Normalize validates generated lines against the idea's characters. Lines
// with an unknown voice are reassigned when their text starts with a
// character name; lines without an [emotion] tag get the speaker's default
// tone. It returns the cleaned lines and the number of remapped voices.
func Normalize(idea content.Idea, lines []content.DialogueLine) ([]content.DialogueLine, int, error) {
	if len(lines) == 0 {
		return nil, 0, fmt.Errorf("script for %q has an empty dialogue list", idea.Title)
	}
	out := make([]content.DialogueLine, 0, len(lines))
	remapped := 0
	for i, line := range lines {
		text := strings.TrimSpace(line.Text)
		if content.StripEmotionTag(text) == "" {
			return nil, 0, fmt.Errorf("line %d has no text", i+1)
		}
		voiceID := strings.TrimSpace(line.VoiceID)
		speaker, ok := idea.CharacterByVoice(voiceID)
		if !ok {
			char, rest, found := speakerPrefix(idea, text)
			if !found {
				return nil, 0, fmt.Errorf("line %d uses unknown voice_id %q", i+1, voiceID)
			}
			speaker, text, voiceID = char, rest, char.VoiceID
			remapped++
		}
		if !content.HasEmotionTag(text) {
			tone := strings.TrimSpace(speaker.DefaultTone)
			if tone == "" {
				tone = "neutral"
			}
			text = "[" + tone + "] " + text
		}
		out = append(out, content.DialogueLine{Text: text, VoiceID: voiceID})
	}
	return out, remapped, nil
}

// speakerPrefix matches "Name: ..." optionally after an emotion tag and
// returns the text with the name removed.
func speakerPrefix(idea content.Idea, text string) (content.Character, string, bool) {
	body := content.StripEmotionTag(text)
	tag := strings.TrimSpace(strings.TrimSuffix(text, body))
	name, rest, ok := strings.Cut(body, ":")
	if !ok {
		return content.Character{}, "", false
	}
	char, found := idea.CharacterByName(name)
	if !found || char.VoiceID == "" {
		return content.Character{}, "", false
	}
	rest = strings.TrimSpace(rest)
	if tag != "" {
		rest = tag + " " + rest
	}
	return char, rest, true
}
