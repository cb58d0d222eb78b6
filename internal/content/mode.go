package content

import (
	"fmt"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
)

// Mode selects which ideas file and scripts directory a stage works on.
type Mode string

const (
	ModeConversation Mode = "conversation"
	ModePodcast      Mode = "podcast"
)

// ParseMode accepts "", "conversation", or "podcast" (case-insensitive). The
// empty string selects conversation mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ModeConversation):
		return ModeConversation, nil
	case string(ModePodcast):
		return ModePodcast, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want conversation or podcast)", value)
	}
}

func (m Mode) String() string { return string(m) }

// IdeasFile returns the ideas file for the mode.
func (m Mode) IdeasFile(cfg *config.Config) string {
	if m == ModePodcast {
		return cfg.Paths.PodcastIdeasFile
	}
	return cfg.Paths.IdeasFile
}

// ScriptsDir returns the scripts directory for the mode.
func (m Mode) ScriptsDir(cfg *config.Config) string {
	if m == ModePodcast {
		return cfg.Paths.PodcastScriptsDir
	}
	return cfg.Paths.ScriptsDir
}

// SheetName returns the worksheet the mode's ideas are registered in.
func (m Mode) SheetName(cfg *config.Config) string {
	if m == ModePodcast {
		return cfg.Sheets.PodcastSheet
	}
	return cfg.Sheets.ConversationSheet
}

// IdeaCount returns how many ideas one generation batch requests.
func (m Mode) IdeaCount(cfg *config.Config) int {
	if m == ModePodcast {
		return cfg.Ideas.PodcastCount
	}
	return cfg.Ideas.ConversationCount
}

// MinCharacters is the fewest characters an idea may carry.
func (m Mode) MinCharacters() int {
	if m == ModePodcast {
		return 1
	}
	return 2
}

// MaxCharacters is the most characters an idea may carry; 0 means no limit.
func (m Mode) MaxCharacters() int {
	if m == ModePodcast {
		return 2
	}
	return 0
}
