package ideation

import (
	"fmt"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/voices"
)

type conversationMetadata struct {
	Language string `json:"language" jsonschema_description:"Language of the dialogues, e.g. Finnish"`
	Tone     string `json:"tone" jsonschema_description:"Overall tone of the batch, e.g. friendly"`
	Length   string `json:"length" jsonschema_description:"Dialogue length, e.g. short"`
}

type conversationIdea struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Characters  []content.Character `json:"characters" jsonschema:"minItems=2"`
}

type conversationBatch struct {
	Metadata conversationMetadata `json:"metadata"`
	Ideas    []conversationIdea   `json:"ideas"`
}

type podcastMetadata struct {
	TargetAudience string `json:"target_audience" jsonschema_description:"e.g. Absolute Beginner"`
	Duration       string `json:"duration" jsonschema_description:"e.g. 3-5 minutes"`
	Format         string `json:"format" jsonschema_description:"e.g. Solo or Host/Guest"`
}

type podcastIdea struct {
	Title      string              `json:"title" jsonschema_description:"Catchy episode title"`
	Concept    string              `json:"concept" jsonschema_description:"Brief summary of the tip or phrases taught"`
	Characters []content.Character `json:"characters" jsonschema:"minItems=1,maxItems=2"`
}

type podcastBatch struct {
	Metadata podcastMetadata `json:"metadata"`
	Ideas    []podcastIdea   `json:"podcast_ideas"`
}

func (b conversationBatch) set() content.IdeaSet {
	set := content.IdeaSet{
		Mode:     content.ModeConversation,
		Metadata: content.Metadata{Language: b.Metadata.Language, Tone: b.Metadata.Tone, Length: b.Metadata.Length},
		Ideas:    make([]content.Idea, 0, len(b.Ideas)),
	}
	for _, idea := range b.Ideas {
		set.Ideas = append(set.Ideas, content.Idea{Title: idea.Title, Description: idea.Description, Characters: idea.Characters})
	}
	return set
}

func (b podcastBatch) set() content.IdeaSet {
	set := content.IdeaSet{
		Mode:     content.ModePodcast,
		Metadata: content.Metadata{TargetAudience: b.Metadata.TargetAudience, Duration: b.Metadata.Duration, Format: b.Metadata.Format},
		Ideas:    make([]content.Idea, 0, len(b.Ideas)),
	}
	for _, idea := range b.Ideas {
		set.Ideas = append(set.Ideas, content.Idea{Title: idea.Title, Concept: idea.Concept, Characters: idea.Characters})
	}
	return set
}

func conversationSystemPrompt(pool voices.Pool) string {
	return `You are a creative idea generator for short Finnish conversations.
You must output STRICTLY in JSON format.

Rules:
- Each idea can have 2 or more characters.
- Each character MUST have a distinct role (e.g., Speaker 1, Speaker 2, Customer, Shopkeeper, Friend, Parent) so the speaker of every line can be identified.
- One conversation must not use the same voice for more than one character.
- The gender and age of each character must be specified and matched to a voice in this voice pool:
` + pool.Describe() + `
- Dialogues must be suitable for beginners learning Finnish.
- Each idea must be creative, fun, and immediately useful for a beginner.
- Use realistic Finnish names and situations (e.g., cafés, trams, offices, home).
- Only fill in the string values.`
}

func podcastSystemPrompt(pool voices.Pool) string {
	return fmt.Sprintf(`You are a highly creative script idea generator for short (3-5 minute) educational podcasts aimed at absolute beginners learning Finnish.
The ideas must focus on either a single, highly useful beginner Finnish tip (e.g., a grammar shortcut, a cultural concept, or a pronunciation trick) OR a small set of immediately useful phrases for a specific situation.
The podcast can be a 'Solo Host' (1 character) or 'Host and Guest' (2 characters).
You must output STRICTLY in JSON format.

Rules:
- Each idea must be creative, fun, and immediately useful for a beginner.
- Describe the character roles (Host, Guest, or Solo Presenter).
- The gender and age of each character must be specified.
- The character names MUST be chosen ONLY from this approved list of names: %s.
- The 'title' should be catchy and podcast-friendly.
- Only fill in the string values.`, strings.Join(pool.PodcastNames(), ", "))
}

func userPrompt(mode content.Mode, count int, forbidden []string) string {
	existing := "None"
	if len(forbidden) > 0 {
		lines := make([]string, 0, len(forbidden))
		for _, f := range forbidden {
			lines = append(lines, "- "+f)
		}
		existing = strings.Join(lines, "\n")
	}
	if mode == content.ModePodcast {
		return fmt.Sprintf("Generate %d unique, creative, and highly useful podcast ideas for Finnish beginners, following the specified JSON structure exactly. Remember to use only the allowed character names.\n\n"+
			"**IMPORTANT:** Do NOT create podcasts with these titles or descriptions (already exist):\n%s\n\n"+
			"Create ONLY NEW and DIFFERENT podcast ideas, avoiding anything that repeats or closely resembles the existing titles or descriptions.", count, existing)
	}
	return fmt.Sprintf("Generate %d unique ideas for short Finnish conversations, following the specified JSON structure exactly.\n\n"+
		"**IMPORTANT:** Do NOT create conversations with these titles or descriptions (already exist):\n%s\n\n"+
		"Create ONLY NEW and DIFFERENT conversation ideas, avoiding anything that repeats or closely resembles the existing titles or descriptions.", count, existing)
}
