package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/fileutil"
	"github.com/hoangt2/kielo-convo-generator/internal/services"
	"github.com/hoangt2/kielo-convo-generator/internal/textutil"
)

// Character is one speaker in an idea. VoiceID is assigned after generation.
type Character struct {
	Name        string `json:"name" jsonschema_description:"Finnish first name of the character"`
	Role        string `json:"role,omitempty" jsonschema_description:"Role in the scene, e.g. barista, customer, host"`
	Gender      string `json:"gender,omitempty" jsonschema:"enum=male,enum=female" jsonschema_description:"male or female"`
	Age         string `json:"age,omitempty" jsonschema:"enum=kid,enum=teenager,enum=young adult,enum=adult,enum=middle-aged,enum=senior" jsonschema_description:"Age group"`
	DefaultTone string `json:"default_tone,omitempty" jsonschema_description:"Default emotional tone, e.g. cheerful, calm"`
	VoiceID     string `json:"voice_id,omitempty" jsonschema:"-"`
}

// Label renders "name (role)" or just the name.
func (c Character) Label() string {
	if strings.TrimSpace(c.Role) == "" {
		return c.Name
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Role)
}

// Idea is one generated content idea. Conversation ideas carry a description,
// podcast ideas a concept.
type Idea struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Concept     string      `json:"concept,omitempty"`
	Characters  []Character `json:"characters"`
}

// Summary returns the description, or the concept for podcast ideas.
func (i Idea) Summary() string {
	if d := strings.TrimSpace(i.Description); d != "" {
		return d
	}
	return strings.TrimSpace(i.Concept)
}

// Slug returns the artifact identifier derived from the title.
func (i Idea) Slug() string {
	return textutil.Slugify(i.Title)
}

// VoiceIDs returns the distinct voice IDs assigned to the idea's characters.
func (i Idea) VoiceIDs() []string {
	seen := make(map[string]struct{}, len(i.Characters))
	ids := make([]string, 0, len(i.Characters))
	for _, c := range i.Characters {
		if c.VoiceID == "" {
			continue
		}
		if _, ok := seen[c.VoiceID]; ok {
			continue
		}
		seen[c.VoiceID] = struct{}{}
		ids = append(ids, c.VoiceID)
	}
	return ids
}

// CharacterByVoice finds the character speaking with voiceID.
func (i Idea) CharacterByVoice(voiceID string) (Character, bool) {
	for _, c := range i.Characters {
		if c.VoiceID == voiceID && voiceID != "" {
			return c, true
		}
	}
	return Character{}, false
}

// CharacterByName finds a character by case-insensitive name.
func (i Idea) CharacterByName(name string) (Character, bool) {
	name = strings.TrimSpace(name)
	for _, c := range i.Characters {
		if strings.EqualFold(c.Name, name) && name != "" {
			return c, true
		}
	}
	return Character{}, false
}

// Metadata describes a batch. Conversation batches use Language/Tone/Length;
// podcast batches use TargetAudience/Duration/Format.
type Metadata struct {
	Language       string `json:"language,omitempty"`
	Tone           string `json:"tone,omitempty"`
	Length         string `json:"length,omitempty"`
	TargetAudience string `json:"target_audience,omitempty"`
	Duration       string `json:"duration,omitempty"`
	Format         string `json:"format,omitempty"`
}

// Fields returns the three mode-specific metadata values in sheet column order.
func (m Metadata) Fields(mode Mode) [3]string {
	if mode == ModePodcast {
		return [3]string{m.TargetAudience, m.Duration, m.Format}
	}
	return [3]string{m.Language, m.Tone, m.Length}
}

// IdeaSet is the ideas file. It serializes the list under "ideas" or
// "podcast_ideas" depending on Mode.
type IdeaSet struct {
	Mode     Mode
	Metadata Metadata
	Ideas    []Idea
}

type ideaSetJSON struct {
	Metadata     Metadata `json:"metadata"`
	Ideas        []Idea   `json:"ideas,omitempty"`
	PodcastIdeas []Idea   `json:"podcast_ideas,omitempty"`
}

// wire returns the mode-keyed shape, always emitting the list even when empty.
func (s IdeaSet) wire() any {
	ideas := s.Ideas
	if ideas == nil {
		ideas = []Idea{}
	}
	if s.Mode == ModePodcast {
		return struct {
			Metadata     Metadata `json:"metadata"`
			PodcastIdeas []Idea   `json:"podcast_ideas"`
		}{s.Metadata, ideas}
	}
	return struct {
		Metadata Metadata `json:"metadata"`
		Ideas    []Idea   `json:"ideas"`
	}{s.Metadata, ideas}
}

// MarshalJSON writes the mode's list key without HTML escaping.
func (s IdeaSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.wire()); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts either list key and infers Mode from it.
func (s *IdeaSet) UnmarshalJSON(data []byte) error {
	var raw ideaSetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Metadata = raw.Metadata
	switch {
	case raw.PodcastIdeas != nil:
		s.Mode = ModePodcast
		s.Ideas = raw.PodcastIdeas
	default:
		if s.Mode == "" {
			s.Mode = ModeConversation
		}
		s.Ideas = raw.Ideas
	}
	return nil
}

// LoadIdeaSet reads an ideas file. A missing file is reported as
// services.ErrNotFound and malformed JSON as services.ErrValidation.
func LoadIdeaSet(path string, mode Mode) (IdeaSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return IdeaSet{}, services.Wrap(services.ErrNotFound, "", "load ideas", fmt.Sprintf("ideas file %s not found; run `kielo ideas` first", path), nil)
		}
		return IdeaSet{}, fmt.Errorf("read ideas file: %w", err)
	}
	set := IdeaSet{Mode: mode}
	if len(strings.TrimSpace(string(data))) == 0 {
		return set, nil
	}
	if err := json.Unmarshal(data, &set); err != nil {
		return IdeaSet{}, services.Wrap(services.ErrValidation, "", "load ideas", fmt.Sprintf("ideas file %s is not valid JSON", path), err)
	}
	set.Mode = mode
	return set, nil
}

// Save writes the set as indented UTF-8 JSON, atomically.
func (s IdeaSet) Save(path string) error {
	data, err := MarshalIndent(s.wire())
	if err != nil {
		return fmt.Errorf("encode ideas: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
