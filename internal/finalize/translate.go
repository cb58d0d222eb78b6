package finalize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/language"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/subtitles"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
)

type translationResponse struct {
	Translations []string `json:"translations" jsonschema_description:"One translation per input line, in the same order"`
}

const translationSystem = "You are a professional subtitle translator. You translate short spoken lines faithfully and naturally, keep them concise enough to read on screen, and strictly output only valid JSON."

// Translator fills Segment.Translation through a text generator.
type Translator struct {
	gen   textgen.Generator
	model string
}

// NewTranslator returns a Translator using model.
func NewTranslator(gen textgen.Generator, model string) *Translator {
	return &Translator{gen: gen, model: model}
}

// Translate returns segments with translations into target. The generator
// must return exactly one translation per segment.
func (t *Translator) Translate(ctx context.Context, segments []subtitles.Segment, source, target string) ([]subtitles.Segment, error) {
	if len(segments) == 0 {
		return segments, nil
	}
	lines, err := json.Marshal(subtitles.Texts(segments))
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	prompt := fmt.Sprintf(`Translate each %s subtitle line below into %s.

Rules:
- Return a JSON object {"translations": [...]} with exactly %d strings.
- Keep the order of the input lines; never merge or split lines.
- Do not add speaker names, notes or quotation marks.

Lines:
%s`, language.DisplayName(source), language.DisplayName(target), len(segments), lines)

	resp, raw, err := textgen.Generate[translationResponse](ctx, t.gen, textgen.Request{
		Operation: "translate",
		Model:     t.model,
		System:    translationSystem,
		Prompt:    prompt,
		Schema:    textgen.SchemaFor[translationResponse](),
	})
	if err != nil {
		if raw != "" {
			return nil, services.Wrap(services.ErrValidation, StageName, "decode translation", "translation response is not valid JSON", err)
		}
		return nil, services.Wrap(services.ErrExternalAPI, StageName, "translate", "translation request failed", err)
	}
	if len(resp.Translations) != len(segments) {
		return nil, services.Wrap(services.ErrValidation, StageName, "translate",
			fmt.Sprintf("expected %d translations, got %d", len(segments), len(resp.Translations)), nil)
	}
	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		seg.Translation = strings.TrimSpace(resp.Translations[i])
		out[i] = seg
	}
	return out, nil
}
