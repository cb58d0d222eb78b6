package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/textutil"
)

// DialogueLine is one spoken turn. Text carries a leading [emotion] tag that
// ElevenLabs v3 interprets as delivery direction.
type DialogueLine struct {
	Text    string `json:"text" jsonschema_description:"The line in the target language, starting with an [emotion] tag"`
	VoiceID string `json:"voice_id" jsonschema_description:"Voice ID of the speaking character, copied exactly from the character list"`
}

// Script is scripts/<slug>.json.
type Script struct {
	Metadata     Metadata       `json:"metadata"`
	Idea         Idea           `json:"idea"`
	DialogueList []DialogueLine `json:"dialogue_list"`
}

var emotionTag = regexp.MustCompile(`^\s*\[[^\]]*\]\s*`)

// HasEmotionTag reports whether text starts with a [tag].
func HasEmotionTag(text string) bool {
	return emotionTag.MatchString(text)
}

// StripEmotionTag removes a leading [tag] from text.
func StripEmotionTag(text string) string {
	return strings.TrimSpace(emotionTag.ReplaceAllString(text, ""))
}

// Slug returns the script's artifact identifier.
func (s Script) Slug() string {
	return textutil.Slugify(s.Idea.Title)
}

// Words returns the first n spoken words of the dialogue with emotion tags
// removed, followed by "..." when the dialogue is longer.
func (s Script) Words(n int) string {
	parts := make([]string, 0, len(s.DialogueList))
	for _, line := range s.DialogueList {
		if text := StripEmotionTag(line.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return textutil.FirstWords(strings.Join(parts, " "), n)
}

// Language returns the script language from metadata, defaulting to Finnish.
func (s Script) Language() string {
	if l := strings.TrimSpace(s.Metadata.Language); l != "" {
		return l
	}
	return "Finnish"
}

// Tone returns the batch tone, falling back to the podcast format.
func (s Script) Tone() string {
	if t := strings.TrimSpace(s.Metadata.Tone); t != "" {
		return t
	}
	if f := strings.TrimSpace(s.Metadata.Format); f != "" {
		return f
	}
	return "friendly"
}

// LoadScript reads and decodes a script file. Missing files are
// services.ErrNotFound and malformed JSON is services.ErrValidation.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Script{}, services.Wrap(services.ErrNotFound, "", "load script", fmt.Sprintf("script %s not found", path), nil)
		}
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	var script Script
	if err := json.Unmarshal(data, &script); err != nil {
		return Script{}, services.Wrap(services.ErrValidation, "", "load script", fmt.Sprintf("script %s is not valid JSON", path), err)
	}
	return script, nil
}

// Save writes the script as indented UTF-8 JSON, atomically.
func (s Script) Save(path string) error {
	data, err := MarshalIndent(s)
	if err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// MarshalIndent encodes v with two-space indentation and without HTML
// escaping so Finnish text and tags stay readable.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
