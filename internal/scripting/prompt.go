package scripting

import (
	"fmt"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/content"
)

type dialogueResponse struct {
	DialogueList []content.DialogueLine `json:"dialogue_list" jsonschema:"minItems=1"`
}

const (
	conversationSystem = "You are a creative Finnish dialogue writer who writes expressive, natural speech, and you strictly output only valid JSON."
	podcastSystem      = "You are an expert Finnish language podcast scriptwriter who writes instructional, engaging dialogue and strictly outputs only valid JSON."
)

const outputFormat = `The output MUST be a single JSON object containing a key called 'dialogue_list'.
The 'dialogue_list' must be a JSON array of objects, where each object represents a dialogue line
formatted exactly for the ElevenLabs text-to-dialogue API:

{
  "dialogue_list": [
    {
      "text": "[emotion] Dialogue line, including sound cues like [sigh] or [laugh].",
      "voice_id": "The specific voice_id for this character from the list above."
    }
  ]
}`

func characterLines(idea content.Idea, podcast bool) string {
	lines := make([]string, 0, len(idea.Characters))
	for _, c := range idea.Characters {
		tone := c.DefaultTone
		if tone == "" {
			tone = "neutral"
		}
		if podcast {
			lines = append(lines, fmt.Sprintf("- %s (Role: %s, Tone: %s, Voice ID: %s)", c.Name, c.Role, tone, c.VoiceID))
			continue
		}
		gender := c.Gender
		if gender == "" {
			gender = "unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s (Gender: %s, Role: %s, Default Tone: %s, Voice ID: %s)", c.Name, gender, c.Role, tone, c.VoiceID))
	}
	return strings.Join(lines, "\n")
}

func conversationPrompt(idea content.Idea, meta content.Metadata) string {
	return fmt.Sprintf(`You are a Finnish dialogue writer. Your task is to generate a short (2-3 minutes) natural and realistic conversation
based on the provided idea.

%s

Characters:
%s

Instructions:
- Use the **exact** 'voice_id' provided in the Characters list for each line.
- The 'text' field must start with an emotion/tone in brackets (e.g., [calm], [excited]).
- Keep the speech natural, expressive, and varied.
- Match each character's tone and personality.

Metadata:
Language: %s
Tone: %s
Length: %s

Idea:
Title: %s
Description: %s

Generate the full conversation in the specified JSON format.`,
		outputFormat, characterLines(idea, false),
		orDefault(meta.Language, "Finnish"), orDefault(meta.Tone, "neutral"), orDefault(meta.Length, "1-2 minutes"),
		idea.Title, idea.Summary())
}

func podcastPrompt(idea content.Idea, meta content.Metadata) string {
	audience := orDefault(meta.TargetAudience, "Absolute Beginner")
	return fmt.Sprintf(`You are an expert Finnish language podcast scriptwriter. Your task is to generate an engaging,
instructional podcast script based on the provided concept and characters.

%s

The script should be a **language lesson** and must include clear explanations and examples based on the concept.
The **main language** of the script must be **English**, with Finnish phrases and vocabulary introduced,
explained, and repeated for the lesson. The target listener is a Finnish '%s' learner.

Characters:
%s

Instructions:
- Use the **exact** 'voice_id' provided in the Characters list for each line.
- The 'text' field must start with an emotion/tone in brackets (e.g., [calm], [excited]).
- The script must clearly deliver the lesson outlined in the concept.
- **STRICTLY:** The vast majority (85%%+) of the dialogue should be in English. Introduce and explain Finnish words/phrases clearly.
- Ensure the total duration aligns with the metadata length.

Metadata:
Target Audience: %s
Duration: %s
Format: %s

Podcast Idea:
Title: %s
Concept: %s

Generate the full podcast script in the specified JSON format.`,
		outputFormat, audience, characterLines(idea, true),
		audience, orDefault(meta.Duration, "3-5 minutes"), orDefault(meta.Format, "Solo"),
		idea.Title, idea.Summary())
}

func orDefault(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}
