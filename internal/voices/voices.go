// Package voices holds the ElevenLabs voice pool and the rules that assign a
// voice to every generated character.
package voices

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
)

// Voice is one ElevenLabs voice.
type Voice struct {
	Name        string `yaml:"name" json:"name"`
	Gender      string `yaml:"gender" json:"gender"`
	Age         string `yaml:"age,omitempty" json:"age,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	VoiceID     string `yaml:"voice_id" json:"voice_id"`
}

// Pool lists the voices available to conversations and the named voices a
// podcast character may use.
type Pool struct {
	Conversation []Voice `yaml:"conversation"`
	Podcast      []Voice `yaml:"podcast"`
}

// Default returns the built-in pool.
func Default() Pool {
	return Pool{
		Conversation: []Voice{
			{Name: "Aurora", Gender: "female", Age: "young adult", Description: "Young Finnish friendly and professional voice.", VoiceID: "YSabzCJMvEHDduIDMdwV"},
			{Name: "Jussi", Gender: "male", Age: "young adult", Description: "Finnish young male voice with a strong, light-hearted accent.", VoiceID: "dlbXHgJnwobU5JdZ8F5M"},
			{Name: "Mark", Gender: "male", Age: "adult", Description: "Soft and calm.", VoiceID: "1SM7GgM6IMuvQlz2BwM3"},
			{Name: "Scheila", Gender: "female", Description: "Crisp, carefully articulated, smooth cadence.", VoiceID: "cyD08lEy76q03ER1jZ7y"},
			{Name: "Rahul", Gender: "male", Age: "middle-aged", Description: "Velvety, laid-back timbre, brimming with energy.", VoiceID: "u7bRcYbD7visSINTyAT8"},
			{Name: "Grandpa Spuds", Gender: "male", Age: "senior", Description: "A friendly grandpa telling tall tales.", VoiceID: "NOpBlnGInO9m6vDvFkFC"},
			{Name: "Hope", Gender: "female", Age: "adult", Description: "Conversational and soft-spoken.", VoiceID: "1SM7GgM6IMuvQlz2BwM3"},
			{Name: "Grandma Rachel", Gender: "female", Age: "senior", Description: "A friendly grandma telling tall tales.", VoiceID: "0rEo3eAjssGDUCXHYENf"},
			{Name: "Gretchen", Gender: "female", Age: "kid", Description: "Bubbly and chatty.", VoiceID: "JVVJ6VsnUPJAdfGmEBGP"},
			{Name: "Brayden", Gender: "male", Age: "teenager", Description: "A deep-voiced male teenager.", VoiceID: "3XOBzXhnDY98yeWQ3GdM"},
		},
		Podcast: []Voice{
			{Name: "Aurora", Gender: "female", Age: "young adult", VoiceID: "YSabzCJMvEHDduIDMdwV"},
			{Name: "Jussi", Gender: "male", Age: "young adult", VoiceID: "dlbXHgJnwobU5JdZ8F5M"},
		},
	}
}

// Load returns the pool from a YAML file, or the built-in pool when path is
// empty. Sections missing from the file keep their built-in voices.
func Load(path string) (Pool, error) {
	pool := Default()
	if strings.TrimSpace(path) == "" {
		return pool, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Pool{}, fmt.Errorf("read voices file: %w", err)
	}
	var override Pool
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Pool{}, fmt.Errorf("parse voices file %s: %w", path, err)
	}
	if len(override.Conversation) > 0 {
		pool.Conversation = override.Conversation
	}
	if len(override.Podcast) > 0 {
		pool.Podcast = override.Podcast
	}
	if err := pool.Validate(); err != nil {
		return Pool{}, fmt.Errorf("voices file %s: %w", path, err)
	}
	return pool, nil
}

// Validate checks every voice has an ID and a gender.
func (p Pool) Validate() error {
	for _, group := range [][]Voice{p.Conversation, p.Podcast} {
		for i, v := range group {
			if strings.TrimSpace(v.VoiceID) == "" {
				return fmt.Errorf("voice %d (%s): voice_id is required", i, v.Name)
			}
			if strings.TrimSpace(v.Gender) == "" {
				return fmt.Errorf("voice %d (%s): gender is required", i, v.Name)
			}
		}
	}
	if len(p.Conversation) == 0 || len(p.Podcast) == 0 {
		return fmt.Errorf("voice pool must list conversation and podcast voices")
	}
	return nil
}

// PodcastNames returns the names podcast characters must use.
func (p Pool) PodcastNames() []string {
	names := make([]string, 0, len(p.Podcast))
	for _, v := range p.Podcast {
		names = append(names, v.Name)
	}
	return names
}

// Describe renders the conversation pool for the idea prompt, one voice per line.
func (p Pool) Describe() string {
	var b strings.Builder
	for _, v := range p.Conversation {
		age := v.Age
		if age == "" {
			age = "any age"
		}
		fmt.Fprintf(&b, "- %s: %s, %s", v.Name, v.Gender, age)
		if v.Description != "" {
			fmt.Fprintf(&b, ". %s", v.Description)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Assigner picks voices for characters. The random source is injectable so
// tests are deterministic.
type Assigner struct {
	pool Pool
	rng  *rand.Rand
}

// NewAssigner constructs an Assigner. A nil rng uses a randomly seeded source.
func NewAssigner(pool Pool, rng *rand.Rand) *Assigner {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Assigner{pool: pool, rng: rng}
}

// AssignConversation sets VoiceID on every character. A voice matching gender
// and age is preferred, then gender only, then any voice. Voices already used
// in the idea are avoided while unused voices remain.
func (a *Assigner) AssignConversation(idea *content.Idea) {
	used := make(map[string]struct{}, len(idea.Characters))
	for i := range idea.Characters {
		char := &idea.Characters[i]
		gender := strings.ToLower(strings.TrimSpace(char.Gender))
		age := strings.ToLower(strings.TrimSpace(char.Age))

		var matching []Voice
		if age != "" {
			matching = a.filter(func(v Voice) bool {
				return strings.EqualFold(v.Gender, gender) && strings.EqualFold(v.Age, age)
			})
		}
		if len(matching) == 0 {
			matching = a.filter(func(v Voice) bool { return strings.EqualFold(v.Gender, gender) })
		}
		if len(matching) == 0 {
			matching = a.pool.Conversation
		}

		available := unused(matching, used)
		if len(available) == 0 {
			available = unused(a.pool.Conversation, used)
		}
		if len(available) == 0 {
			available = a.pool.Conversation
		}
		voice := available[a.rng.IntN(len(available))]
		char.VoiceID = voice.VoiceID
		used[voice.VoiceID] = struct{}{}
	}
}

// AssignPodcast maps each character name onto the podcast voice list,
// case-insensitively. Characters with an unknown name get a random podcast
// voice; their names are returned so callers can warn.
func (a *Assigner) AssignPodcast(idea *content.Idea) []string {
	byName := make(map[string]string, len(a.pool.Podcast))
	for _, v := range a.pool.Podcast {
		byName[strings.ToLower(strings.TrimSpace(v.Name))] = v.VoiceID
	}
	var unknown []string
	for i := range idea.Characters {
		char := &idea.Characters[i]
		if id, ok := byName[strings.ToLower(strings.TrimSpace(char.Name))]; ok {
			char.VoiceID = id
			continue
		}
		unknown = append(unknown, char.Name)
		char.VoiceID = a.pool.Podcast[a.rng.IntN(len(a.pool.Podcast))].VoiceID
	}
	return unknown
}

// Assign dispatches on mode.
func (a *Assigner) Assign(mode content.Mode, idea *content.Idea) []string {
	if mode == content.ModePodcast {
		return a.AssignPodcast(idea)
	}
	a.AssignConversation(idea)
	return nil
}

func (a *Assigner) filter(keep func(Voice) bool) []Voice {
	var out []Voice
	for _, v := range a.pool.Conversation {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func unused(voices []Voice, used map[string]struct{}) []Voice {
	out := make([]Voice, 0, len(voices))
	for _, v := range voices {
		if _, taken := used[v.VoiceID]; !taken {
			out = append(out, v)
		}
	}
	return out
}
