package illustration_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/illustration"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/testsupport"
)

type fakeImages struct {
	prompt string
	model  string
	err    error
}

func (f *fakeImages) GenerateImage(_ context.Context, model, prompt string) ([]byte, string, error) {
	f.model, f.prompt = model, prompt
	if f.err != nil {
		return nil, "", f.err
	}
	return []byte("\x89PNG fake"), "image/png", nil
}

func TestPromptIncludesSceneDetails(t *testing.T) {
	script := content.Script{
		Metadata: content.Metadata{Language: "Finnish", Tone: "friendly"},
		Idea:     testsupport.SampleIdea("Kahvilassa"),
		DialogueList: []content.DialogueLine{
			{Text: "[cheerful] Hei! Yksi kahvi, kiitos.", VoiceID: "voice-aino"},
		},
	}
	prompt := illustration.Prompt("Flat style.", script)
	for _, want := range []string{
		"Flat style.",
		"The language of the script is Finnish, and the tone is friendly.",
		"Scene description: Kaksi ystävää tilaa kahvia kahvilassa.",
		"Aino (female, young adult); Mikko (male, adult)",
		"'Hei! Yksi kahvi, kiitos.'",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestExecuteComposesCanvas(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	images := &fakeImages{}
	media := &testsupport.MediaRecorder{}

	h := illustration.NewHandler(cfg, content.ModeConversation, images, media.Invoker())
	units, err := h.Prepare(context.Background())
	if err != nil || len(units) != 1 {
		t.Fatalf("prepare = %v, %v", units, err)
	}
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := filepath.Join(cfg.Paths.IllustrationsDir, "kahvilassa.png")
	if !fileutil.NonEmpty(want) || units[0].Artifacts[manifest.ArtifactIllustration] != want {
		t.Fatalf("illustration not produced: %+v", units[0].Artifacts)
	}
	if images.model != cfg.Illustration.Model {
		t.Fatalf("model = %q", images.model)
	}
	if media.CallCount() != 1 || !strings.Contains(strings.Join(media.Calls[0], " "), "pad=720:1280") {
		t.Fatalf("unexpected ffmpeg calls: %v", media.Calls)
	}
	if fileutil.Exists(filepath.Join(cfg.Paths.WorkDir, "kahvilassa.source.png")) {
		t.Fatal("source image should be removed")
	}

	// A second pass leaves the existing image alone.
	units, _ = h.Prepare(context.Background())
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if _, skipped := units[0].Skipped(); !skipped || media.CallCount() != 1 {
		t.Fatal("expected existing illustration to be skipped")
	}
}

func TestExecuteImageFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	media := &testsupport.MediaRecorder{}
	h := illustration.NewHandler(cfg, content.ModeConversation, &fakeImages{err: errors.New("blocked: SAFETY")}, media.Invoker())
	units, _ := h.Prepare(context.Background())
	err := h.Execute(context.Background(), units[0])
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("expected ErrExternalAPI, got %v", err)
	}
	if media.CallCount() != 0 {
		t.Fatal("ffmpeg should not run without an image")
	}
}

func TestExecuteMalformedScript(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	if err := fileutil.WriteFileAtomic(filepath.Join(cfg.Paths.ScriptsDir, "rikki.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := illustration.NewHandler(cfg, content.ModeConversation, &fakeImages{}, (&testsupport.MediaRecorder{}).Invoker())
	units, _ := h.Prepare(context.Background())
	if err := h.Execute(context.Background(), units[0]); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
