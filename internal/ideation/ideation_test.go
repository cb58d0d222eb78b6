package ideation_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/ideation"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/services/sheets"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
	"github.com/hoangt2/kielo-convo-generator/internal/testsupport"
	"github.com/hoangt2/kielo-convo-generator/internal/voices"
)

type fakeRegistry struct {
	entries  []sheets.Entry
	existErr error
	sheet    string
	rows     [][]any
}

func (r *fakeRegistry) Existing(_ context.Context, sheet string) ([]sheets.Entry, error) {
	r.sheet = sheet
	return r.entries, r.existErr
}

func (r *fakeRegistry) AppendRows(_ context.Context, sheet string, rows [][]any) error {
	r.sheet = sheet
	r.rows = append(r.rows, rows...)
	return nil
}

const conversationPayload = `{
  "metadata": {"language": "Finnish", "tone": "friendly", "length": "short"},
  "ideas": [
    {"title": "Kahvilassa", "description": "Tilataan kahvia.", "characters": [
      {"name": "Aino", "role": "customer", "gender": "female", "age": "young adult", "default_tone": "cheerful"},
      {"name": "Mikko", "role": "barista", "gender": "male", "age": "adult", "default_tone": "calm"}
    ]},
    {"title": "kahvilassa!", "description": "Sama otsikko.", "characters": [
      {"name": "A", "role": "x", "gender": "female", "age": "adult"},
      {"name": "B", "role": "y", "gender": "male", "age": "adult"}
    ]},
    {"title": "", "description": "No title", "characters": []},
    {"title": "Yksin", "description": "Only one speaker.", "characters": [
      {"name": "Aino", "role": "speaker", "gender": "female", "age": "adult"}
    ]},
    {"title": "Saunassa", "description": "Saunan jälkeen.", "characters": [
      {"name": "Pekka", "role": "host", "gender": "male", "age": "senior", "default_tone": "warm"},
      {"name": "Liisa", "role": "guest", "gender": "female", "age": "senior", "default_tone": "curious"}
    ]},
    {"title": "Raitiovaunussa", "description": "Lipun ostaminen.", "characters": [
      {"name": "Olli", "role": "passenger", "gender": "male", "age": "teenager"},
      {"name": "Sari", "role": "driver", "gender": "female", "age": "adult"}
    ]}
  ]
}`

func newAssigner() *voices.Assigner {
	return voices.NewAssigner(voices.Default(), rand.New(rand.NewPCG(1, 2)))
}

func TestPrepareFiltersAssignsAndSaves(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	// An existing script makes its idea a duplicate.
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Raitiovaunussa")

	var got textgen.Request
	gen := textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (string, error) {
		got = req
		return conversationPayload, nil
	})
	registry := &fakeRegistry{entries: []sheets.Entry{{Title: "Kirjastossa", Description: "Lainataan kirja."}}}
	now := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	h := ideation.NewHandler(cfg, content.ModeConversation, gen, registry, voices.Default(),
		ideation.WithAssigner(newAssigner()), ideation.WithClock(func() time.Time { return now }))

	units, err := h.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(units) != 2 || units[0].Slug != "kahvilassa" || units[1].Slug != "saunassa" {
		t.Fatalf("unexpected units: %+v", units)
	}
	if got.Model != "gemini-2.5-pro" || got.Schema == nil {
		t.Fatalf("unexpected request: %+v", got)
	}
	if !strings.Contains(got.Prompt, "Generate 10 unique ideas") || !strings.Contains(got.Prompt, "- Kirjastossa — Lainataan kirja.") {
		t.Fatalf("prompt missing count or forbidden list:\n%s", got.Prompt)
	}
	if !strings.Contains(got.System, "Grandpa Spuds") {
		t.Fatalf("system prompt missing voice pool:\n%s", got.System)
	}

	set, err := content.LoadIdeaSet(cfg.Paths.IdeasFile, content.ModeConversation)
	if err != nil {
		t.Fatalf("LoadIdeaSet: %v", err)
	}
	if len(set.Ideas) != 2 || set.Metadata.Tone != "friendly" {
		t.Fatalf("unexpected saved set: %+v", set)
	}
	for _, idea := range set.Ideas {
		ids := idea.VoiceIDs()
		if len(ids) != len(idea.Characters) {
			t.Fatalf("voices not unique for %q: %v", idea.Title, ids)
		}
	}
	data, _ := os.ReadFile(cfg.Paths.IdeasFile)
	if !strings.Contains(string(data), "Saunan jälkeen.") {
		t.Fatal("non-ASCII text should be preserved")
	}

	if registry.sheet != "Conversations" || len(registry.rows) != 2 {
		t.Fatalf("unexpected registry writes: %s %v", registry.sheet, registry.rows)
	}
	row := registry.rows[0]
	if row[0] != "Kahvilassa" || row[2] != "Aino (customer); Mikko (barista)" || row[3] != "Finnish" || row[7] != "2025-03-01 12:30:00" {
		t.Fatalf("unexpected row: %v", row)
	}
	var chars []content.Character
	if err := json.Unmarshal([]byte(row[6].(string)), &chars); err != nil || chars[0].VoiceID == "" {
		t.Fatalf("characters JSON = %v, %v", row[6], err)
	}

	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if units[0].Artifacts[manifest.ArtifactIdeas] != cfg.Paths.IdeasFile {
		t.Fatalf("artifacts = %v", units[0].Artifacts)
	}
}

func TestPreparePodcastMapsNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	payload := `{"metadata":{"target_audience":"Absolute Beginner","duration":"3-5 minutes","format":"Host/Guest"},
	  "podcast_ideas":[{"title":"Sisu lyhyesti","concept":"What is sisu?","characters":[
	    {"name":"aurora","role":"Host","gender":"female","age":"young adult"},
	    {"name":"Väinö","role":"Guest","gender":"male","age":"adult"}]}]}`
	var got textgen.Request
	gen := textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (string, error) {
		got = req
		return payload, nil
	})
	h := ideation.NewHandler(cfg, content.ModePodcast, gen, nil, voices.Default(), ideation.WithAssigner(newAssigner()))

	units, err := h.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(units) != 1 || units[0].Slug != "sisu-lyhyesti" {
		t.Fatalf("unexpected units: %+v", units)
	}
	if !strings.Contains(got.System, "Aurora, Jussi") || !strings.Contains(got.Prompt, "Generate 3 unique") {
		t.Fatalf("unexpected podcast prompts: %s\n%s", got.System, got.Prompt)
	}
	set, err := content.LoadIdeaSet(cfg.Paths.PodcastIdeasFile, content.ModePodcast)
	if err != nil {
		t.Fatalf("LoadIdeaSet: %v", err)
	}
	chars := set.Ideas[0].Characters
	if chars[0].VoiceID != "YSabzCJMvEHDduIDMdwV" {
		t.Fatalf("aurora voice = %s", chars[0].VoiceID)
	}
	if chars[1].VoiceID != "YSabzCJMvEHDduIDMdwV" && chars[1].VoiceID != "dlbXHgJnwobU5JdZ8F5M" {
		t.Fatalf("fallback voice = %s", chars[1].VoiceID)
	}
}

func TestPrepareEmptyBatchWritesEmptyFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (string, error) {
		return `{"metadata":{"language":"Finnish","tone":"x","length":"short"},"ideas":[]}`, nil
	})
	h := ideation.NewHandler(cfg, content.ModeConversation, gen, nil, voices.Default())
	units, err := h.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(units) != 0 {
		t.Fatalf("expected no units, got %d", len(units))
	}
	set, err := content.LoadIdeaSet(cfg.Paths.IdeasFile, content.ModeConversation)
	if err != nil || len(set.Ideas) != 0 {
		t.Fatalf("ideas file = %+v, %v", set, err)
	}
}

func TestPrepareErrorsAreClassified(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	apiFail := textgen.GeneratorFunc(func(context.Context, textgen.Request) (string, error) {
		return "", errors.New("503 unavailable")
	})
	_, err := ideation.NewHandler(cfg, content.ModeConversation, apiFail, nil, voices.Default()).Prepare(context.Background())
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("expected external api error, got %v", err)
	}

	malformed := textgen.GeneratorFunc(func(context.Context, textgen.Request) (string, error) {
		return "not json at all", nil
	})
	_, err = ideation.NewHandler(cfg, content.ModeConversation, malformed, nil, voices.Default()).Prepare(context.Background())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = ideation.NewHandler(cfg, content.ModeConversation, nil, nil, voices.Default()).Prepare(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRegistryFailureDoesNotAbort(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (string, error) {
		return conversationPayload, nil
	})
	registry := &fakeRegistry{existErr: errors.New("403 forbidden")}
	units, err := ideation.NewHandler(cfg, content.ModeConversation, gen, registry, voices.Default()).Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d", len(units))
	}
}

func TestNearDuplicateOfRegistryIsDropped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (string, error) {
		return conversationPayload, nil
	})
	registry := &fakeRegistry{entries: []sheets.Entry{{Title: "Saunassa", Description: "Saunan jälkeen."}}}
	units, err := ideation.NewHandler(cfg, content.ModeConversation, gen, registry, voices.Default()).Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	for _, u := range units {
		if u.Slug == "saunassa" {
			t.Fatal("near-duplicate idea should be dropped")
		}
	}
}

func TestSyncSkipsKnownTitles(t *testing.T) {
	registry := &fakeRegistry{entries: []sheets.Entry{{Title: "kahvilassa"}}}
	set := content.IdeaSet{Mode: content.ModePodcast, Metadata: content.Metadata{TargetAudience: "Beginner", Duration: "3 min", Format: "Solo"},
		Ideas: []content.Idea{{Title: "Kahvilassa"}, {Title: "Sisu", Concept: "What is sisu?", Characters: []content.Character{{Name: "Aurora", Role: "Host"}}}}}

	result, err := ideation.Sync(context.Background(), registry, "Podcasts", set, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Appended != 1 || result.Skipped != 1 {
		t.Fatalf("result = %+v", result)
	}
	row := registry.rows[0]
	if row[1] != "What is sisu?" || row[2] != "Aurora (Host)" || row[3] != "Beginner" || row[5] != "Solo" {
		t.Fatalf("unexpected row: %v", row)
	}
}
