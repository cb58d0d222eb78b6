package narration_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/manifest"
	"github.com/hoangt2/kielo-convo-generator/internal/narration"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/services/elevenlabs"
	"github.com/hoangt2/kielo-convo-generator/internal/testsupport"
)

type fakeSynth struct {
	dialogue [][]elevenlabs.Turn
	speech   []elevenlabs.Turn
	err      error
}

func (f *fakeSynth) Dialogue(_ context.Context, turns []elevenlabs.Turn) ([]byte, error) {
	f.dialogue = append(f.dialogue, turns)
	return []byte("ID3dialogue"), f.err
}

func (f *fakeSynth) Speech(_ context.Context, voiceID, text string) ([]byte, error) {
	f.speech = append(f.speech, elevenlabs.Turn{Text: text, VoiceID: voiceID})
	return []byte("ID3turn"), f.err
}

func TestDialogueMode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	synth := &fakeSynth{}
	h := narration.NewHandler(cfg, content.ModeConversation, synth, nil)

	units, err := h.Prepare(context.Background())
	if err != nil || len(units) != 1 {
		t.Fatalf("prepare = %v, %v", units, err)
	}
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(synth.dialogue) != 1 || len(synth.dialogue[0]) != 2 {
		t.Fatalf("expected one dialogue call with two turns, got %+v", synth.dialogue)
	}
	if synth.dialogue[0][0].Text != "[cheerful] Hei! Yksi kahvi, kiitos." {
		t.Fatalf("emotion tag should be kept: %q", synth.dialogue[0][0].Text)
	}
	out := filepath.Join(cfg.Paths.AudioDir, "kahvilassa.mp3")
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "ID3dialogue" {
		t.Fatalf("audio = %q, %v", data, err)
	}
	if units[0].Artifacts[manifest.ArtifactAudio] != out {
		t.Fatalf("artifact = %+v", units[0].Artifacts)
	}
}

func TestTurnsModeConcatenates(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	cfg.ElevenLabs.Mode = config.ElevenLabsModeTurns
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	synth := &fakeSynth{}
	media := &testsupport.MediaRecorder{}
	h := narration.NewHandler(cfg, content.ModeConversation, synth, media.Invoker())

	units, _ := h.Prepare(context.Background())
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(synth.speech) != 2 || synth.speech[1].Text != "Tässä, ole hyvä." || synth.speech[1].VoiceID != "voice-mikko" {
		t.Fatalf("unexpected speech calls: %+v", synth.speech)
	}
	if media.CallCount() != 1 {
		t.Fatalf("expected one concat call, got %d", media.CallCount())
	}
	if !fileutil.NonEmpty(filepath.Join(cfg.Paths.AudioDir, "kahvilassa.mp3")) {
		t.Fatal("audio not written")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.WorkDir, "kahvilassa_turns")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("turn directory should be removed, stat err = %v", err)
	}
}

func TestEmptyDialogueSkipped(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	script := content.Script{Idea: testsupport.SampleIdea("Hiljaista")}
	if err := script.Save(filepath.Join(cfg.Paths.ScriptsDir, "hiljaista.json")); err != nil {
		t.Fatal(err)
	}
	synth := &fakeSynth{}
	h := narration.NewHandler(cfg, content.ModeConversation, synth, nil)
	units, _ := h.Prepare(context.Background())
	if err := h.Execute(context.Background(), units[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if reason, skipped := units[0].Skipped(); !skipped || reason != "dialogue list is empty" {
		t.Fatalf("expected skip, got %q %v", reason, skipped)
	}
	if len(synth.dialogue) != 0 {
		t.Fatal("synthesizer should not be called")
	}
}

func TestSynthesisFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDirectories())
	testsupport.WriteScript(t, cfg, content.ModeConversation, "Kahvilassa")
	h := narration.NewHandler(cfg, content.ModeConversation, &fakeSynth{err: errors.New("401")}, nil)
	units, _ := h.Prepare(context.Background())
	if err := h.Execute(context.Background(), units[0]); !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("expected ErrExternalAPI, got %v", err)
	}
	if fileutil.Exists(filepath.Join(cfg.Paths.AudioDir, "kahvilassa.mp3")) {
		t.Fatal("no audio should be written on failure")
	}
}
