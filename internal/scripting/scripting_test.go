package scripting_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/scripting"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/testsupport"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
)

func writeIdeas(t *testing.T, path string, mode content.Mode, ideas ...content.Idea) {
	t.Helper()
	set := content.IdeaSet{
		Mode:     mode,
		Metadata: content.Metadata{Language: "Finnish", Tone: "friendly", Length: "short"},
		Ideas:    ideas,
	}
	if err := set.Save(path); err != nil {
		t.Fatalf("save ideas: %v", err)
	}
}

func TestPrepareMissingIdeasFile(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	h := scripting.NewHandler(cfg, content.ModeConversation, nil)
	_, err := h.Prepare(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExecuteWritesScript(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	mode := content.ModeConversation
	writeIdeas(t, mode.IdeasFile(cfg), mode, testsupport.SampleIdea("Kahvilassa"))

	var got textgen.Request
	gen := textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (string, error) {
		got = req
		return `{"dialogue_list": [
			{"text": "[cheerful] Hei! Yksi kahvi, kiitos.", "voice_id": "voice-aino"},
			{"text": "Tässä, ole hyvä.", "voice_id": "voice-mikko"},
			{"text": "[laughs] Aino: Kiitos!", "voice_id": "made-up"}
		]}`, nil
	})
	h := scripting.NewHandler(cfg, mode, gen)
	units, err := h.Prepare(context.Background())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(units) != 1 || units[0].Slug != "kahvilassa" || units[0].Title != "Kahvilassa" {
		t.Fatalf("unexpected units: %+v", units)
	}
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if got.Model != cfg.LLM.ScriptModel || got.Schema == nil {
		t.Fatalf("unexpected request: %+v", got)
	}
	for _, want := range []string{"Voice ID: voice-aino", "Title: Kahvilassa", "Language: Finnish"} {
		if !strings.Contains(got.Prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}

	path := filepath.Join(mode.ScriptsDir(cfg), "kahvilassa.json")
	if units[0].Artifacts[manifest.ArtifactScript] != path {
		t.Fatalf("artifact not recorded: %+v", units[0].Artifacts)
	}
	script, err := content.LoadScript(path)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	if len(script.DialogueList) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(script.DialogueList))
	}
	if script.DialogueList[1].Text != "[calm] Tässä, ole hyvä." {
		t.Fatalf("default tone not applied: %q", script.DialogueList[1].Text)
	}
	if line := script.DialogueList[2]; line.VoiceID != "voice-aino" || line.Text != "[laughs] Kiitos!" {
		t.Fatalf("voice not remapped: %+v", line)
	}
	if script.Metadata.Language != "Finnish" {
		t.Fatalf("metadata not carried: %+v", script.Metadata)
	}
}

func TestExecuteSkipsExistingScript(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	mode := content.ModeConversation
	writeIdeas(t, mode.IdeasFile(cfg), mode, testsupport.SampleIdea("Kahvilassa"))
	testsupport.WriteScript(t, cfg, mode, "Kahvilassa")

	calls := 0
	gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (string, error) {
		calls++
		return `{}`, nil
	})
	h := scripting.NewHandler(cfg, mode, gen)
	units, err := h.Prepare(context.Background())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, skipped := units[0].Skipped(); !skipped || calls != 0 {
		t.Fatalf("expected skip without generation, skipped=%v calls=%d", skipped, calls)
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		genErr  error
		want    error
	}{
		{name: "malformed", payload: "not json", want: services.ErrValidation},
		{name: "empty dialogue", payload: `{"dialogue_list": []}`, want: services.ErrValidation},
		{name: "unknown voice", payload: `{"dialogue_list": [{"text": "[calm] Moi", "voice_id": "nobody"}]}`, want: services.ErrValidation},
		{name: "api failure", genErr: errors.New("quota"), want: services.ErrExternalAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
			mode := content.ModeConversation
			writeIdeas(t, mode.IdeasFile(cfg), mode, testsupport.SampleIdea("Kahvilassa"))
			gen := textgen.GeneratorFunc(func(context.Context, textgen.Request) (string, error) {
				return tt.payload, tt.genErr
			})
			h := scripting.NewHandler(cfg, mode, gen)
			units, err := h.Prepare(context.Background())
			if err != nil {
				t.Fatalf("prepare: %v", err)
			}
			err = h.Execute(context.Background(), units[0])
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if fileutil.Exists(filepath.Join(mode.ScriptsDir(cfg), "kahvilassa.json")) {
				t.Fatal("script should not be written on failure")
			}
		})
	}
}

func TestExecuteRequiresVoices(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	mode := content.ModePodcast
	idea := testsupport.SampleIdea("Sisu")
	for i := range idea.Characters {
		idea.Characters[i].VoiceID = ""
	}
	writeIdeas(t, mode.IdeasFile(cfg), mode, idea)
	h := scripting.NewHandler(cfg, mode, textgen.GeneratorFunc(func(context.Context, textgen.Request) (string, error) {
		t.Fatal("generator should not be called")
		return "", nil
	}))
	units, err := h.Prepare(context.Background())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), units[0]); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPodcastPromptIsEnglishLesson(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	mode := content.ModePodcast
	writeIdeas(t, mode.IdeasFile(cfg), mode, testsupport.SampleIdea("Sisu"))
	var got textgen.Request
	gen := textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (string, error) {
		got = req
		return `{"dialogue_list": [{"text": "[warm] Welcome! Today: sisu.", "voice_id": "voice-aino"}]}`, nil
	})
	h := scripting.NewHandler(cfg, mode, gen)
	units, err := h.Prepare(context.Background())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(got.Prompt, "85%+") || !strings.Contains(got.System, "podcast") {
		t.Fatalf("podcast prompt not used: %s", got.Prompt)
	}
}
