package content_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
)

func TestParseMode(t *testing.T) {
	for input, want := range map[string]content.Mode{
		"":             content.ModeConversation,
		"conversation": content.ModeConversation,
		"Podcast":      content.ModePodcast,
	} {
		got, err := content.ParseMode(input)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := content.ParseMode("vlog"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestModePaths(t *testing.T) {
	cfg := config.Default()
	if content.ModePodcast.IdeasFile(&cfg) != cfg.Paths.PodcastIdeasFile {
		t.Fatal("podcast ideas file mismatch")
	}
	if content.ModeConversation.ScriptsDir(&cfg) != cfg.Paths.ScriptsDir {
		t.Fatal("conversation scripts dir mismatch")
	}
	if content.ModePodcast.SheetName(&cfg) != "Podcasts" {
		t.Fatal("podcast sheet mismatch")
	}
	if content.ModePodcast.IdeaCount(&cfg) != 3 || content.ModeConversation.IdeaCount(&cfg) != 10 {
		t.Fatal("idea count mismatch")
	}
}

func TestIdeaSetSerializesModeKey(t *testing.T) {
	set := content.IdeaSet{
		Mode:     content.ModePodcast,
		Metadata: content.Metadata{TargetAudience: "learners", Duration: "2 min", Format: "chat"},
		Ideas:    []content.Idea{{Title: "Sisu", Concept: "What is sisu?"}},
	}
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"podcast_ideas"`) || strings.Contains(string(data), `"ideas"`) {
		t.Fatalf("unexpected keys: %s", data)
	}

	var decoded content.IdeaSet
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Mode != content.ModePodcast || len(decoded.Ideas) != 1 || decoded.Ideas[0].Summary() != "What is sisu?" {
		t.Fatalf("unexpected decode: %+v", decoded)
	}

	empty, _ := json.Marshal(content.IdeaSet{Mode: content.ModeConversation})
	if !strings.Contains(string(empty), `"ideas":[]`) {
		t.Fatalf("empty set should still emit list: %s", empty)
	}
}

func TestLoadIdeaSetErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := content.LoadIdeaSet(filepath.Join(dir, "missing.json"), content.ModeConversation)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = content.LoadIdeaSet(bad, content.ModeConversation)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIdeaSetSaveKeepsNonASCII(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideas.json")
	set := content.IdeaSet{Mode: content.ModeConversation, Ideas: []content.Idea{{Title: "Mökillä <3"}}}
	if err := set.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Mökillä <3") {
		t.Fatalf("expected raw UTF-8 and unescaped html, got %s", data)
	}
	loaded, err := content.LoadIdeaSet(path, content.ModeConversation)
	if err != nil || len(loaded.Ideas) != 1 {
		t.Fatalf("reload: %+v %v", loaded, err)
	}
}

func TestScriptHelpers(t *testing.T) {
	script := content.Script{
		Idea: content.Idea{
			Title: "Kahvilassa",
			Characters: []content.Character{
				{Name: "Aino", Role: "barista", VoiceID: "v1"},
				{Name: "Mikko", Role: "customer", VoiceID: "v2"},
			},
		},
		DialogueList: []content.DialogueLine{
			{Text: "[cheerful] Hei! Mitä saisi olla?", VoiceID: "v1"},
			{Text: "[calm] Yksi kahvi, kiitos.", VoiceID: "v2"},
		},
	}
	if script.Slug() != "kahvilassa" {
		t.Fatalf("slug = %q", script.Slug())
	}
	if got := script.Words(7); got != "Hei! Mitä saisi olla? Yksi kahvi, kiitos." {
		t.Fatalf("Words(7) = %q", got)
	}
	if got := script.Words(2); got != "Hei! Mitä..." {
		t.Fatalf("Words(2) = %q", got)
	}
	if c, ok := script.Idea.CharacterByVoice("v2"); !ok || c.Name != "Mikko" {
		t.Fatalf("CharacterByVoice = %+v %v", c, ok)
	}
	if c, ok := script.Idea.CharacterByName("aino"); !ok || c.Label() != "Aino (barista)" {
		t.Fatalf("CharacterByName = %+v %v", c, ok)
	}
	if ids := script.Idea.VoiceIDs(); len(ids) != 2 {
		t.Fatalf("VoiceIDs = %v", ids)
	}
	if !content.HasEmotionTag(script.DialogueList[0].Text) || content.HasEmotionTag("Hei") {
		t.Fatal("HasEmotionTag mismatch")
	}
}

func TestScriptRoundTripOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scripts", "kahvilassa.json")
	script := content.Script{
		Metadata:     content.Metadata{Language: "Finnish"},
		Idea:         content.Idea{Title: "Kahvilassa"},
		DialogueList: []content.DialogueLine{{Text: "[happy] Moi", VoiceID: "v1"}},
	}
	if err := script.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := content.LoadScript(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Language() != "Finnish" || len(loaded.DialogueList) != 1 {
		t.Fatalf("unexpected script %+v", loaded)
	}
	if _, err := content.LoadScript(filepath.Join(t.TempDir(), "nope.json")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIdeaSetMarshalJSONSkipsHTMLEscaping(t *testing.T) {
	set := content.IdeaSet{Mode: content.ModePodcast, Ideas: []content.Idea{{Title: "Sauna & kahvi <3"}}}
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"podcast_ideas":[`) || !strings.Contains(string(data), "Sauna & kahvi <3") {
		t.Fatalf("unexpected encoding: %s", data)
	}
}
