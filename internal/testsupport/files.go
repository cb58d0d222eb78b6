package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// SampleIdea returns a two-character conversation idea with voices assigned.
func SampleIdea(title string) content.Idea {
	return content.Idea{
		Title:       title,
		Description: "Kaksi ystävää tilaa kahvia kahvilassa.",
		Characters: []content.Character{
			{Name: "Aino", Role: "customer", Gender: "female", Age: "young adult", DefaultTone: "cheerful", VoiceID: "voice-aino"},
			{Name: "Mikko", Role: "barista", Gender: "male", Age: "adult", DefaultTone: "calm", VoiceID: "voice-mikko"},
		},
	}
}

// WriteScript saves a two-line script for title into the mode's scripts
// directory and returns its path.
func WriteScript(t testing.TB, cfg *config.Config, mode content.Mode, title string) string {
	t.Helper()

	idea := SampleIdea(title)
	script := content.Script{
		Metadata: content.Metadata{Language: "Finnish", Tone: "friendly", Length: "short"},
		Idea:     idea,
		DialogueList: []content.DialogueLine{
			{Text: "[cheerful] Hei! Yksi kahvi, kiitos.", VoiceID: "voice-aino"},
			{Text: "[calm] Tässä, ole hyvä.", VoiceID: "voice-mikko"},
		},
	}
	path := filepath.Join(mode.ScriptsDir(cfg), script.Slug()+".json")
	if err := script.Save(path); err != nil {
		t.Fatalf("save script: %v", err)
	}
	return path
}
