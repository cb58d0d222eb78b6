package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. API keys are not required here;
// each stage's health check reports a missing credential for the collaborator it
// actually needs.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateLLM,
		c.validateIdeas,
		c.validateElevenLabs,
		c.validateVideo,
		c.validateMusic,
		c.validateSubtitles,
		c.validateSheets,
		c.validatePipeline,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAICompatible:
	default:
		return fmt.Errorf("llm.provider: unsupported value %q (want %s or %s)", c.LLM.Provider, ProviderGemini, ProviderOpenAICompatible)
	}
	if c.LLM.ScriptTemperature < 0 || c.LLM.ScriptTemperature > 2 {
		return errors.New("llm.script_temperature must be between 0 and 2")
	}
	if c.LLM.TimeoutSeconds < 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateIdeas() error {
	if c.Ideas.ConversationCount <= 0 {
		return errors.New("ideas.conversation_count must be positive")
	}
	if c.Ideas.PodcastCount <= 0 {
		return errors.New("ideas.podcast_count must be positive")
	}
	return nil
}

func (c *Config) validateElevenLabs() error {
	switch c.ElevenLabs.Mode {
	case ElevenLabsModeDialogue, ElevenLabsModeTurns:
	default:
		return fmt.Errorf("elevenlabs.mode: unsupported value %q (want %s or %s)", c.ElevenLabs.Mode, ElevenLabsModeDialogue, ElevenLabsModeTurns)
	}
	if c.ElevenLabs.Stability < 0 || c.ElevenLabs.Stability > 1 {
		return errors.New("elevenlabs.stability must be between 0 and 1")
	}
	if c.ElevenLabs.SimilarityBoost < 0 || c.ElevenLabs.SimilarityBoost > 1 {
		return errors.New("elevenlabs.similarity_boost must be between 0 and 1")
	}
	if c.ElevenLabs.TimeoutSeconds <= 0 {
		return errors.New("elevenlabs.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("video dimensions must be positive (got %dx%d)", c.Video.Width, c.Video.Height)
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return fmt.Errorf("video dimensions must be even for yuv420p (got %dx%d)", c.Video.Width, c.Video.Height)
	}
	return nil
}

func (c *Config) validateMusic() error {
	if c.Music.Volume < 0 || c.Music.Volume > 1 {
		return errors.New("music.volume must be between 0 and 1")
	}
	if c.Music.FadeOutSeconds < 0 {
		return errors.New("music.fade_out_seconds must not be negative")
	}
	if c.Music.Enabled && strings.TrimSpace(c.Music.File) == "" {
		return errors.New("music.file must be set when music.enabled is true")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	switch c.Subtitles.Provider {
	case SubtitleProviderWhisperX, SubtitleProviderOpenAI:
	default:
		return fmt.Errorf("subtitles.provider: unsupported value %q (want %s or %s)", c.Subtitles.Provider, SubtitleProviderWhisperX, SubtitleProviderOpenAI)
	}
	switch c.Subtitles.Format {
	case SubtitleFormatASS, SubtitleFormatSRT:
	default:
		return fmt.Errorf("subtitles.format: unsupported value %q (want %s or %s)", c.Subtitles.Format, SubtitleFormatASS, SubtitleFormatSRT)
	}
	switch c.Subtitles.WhisperXVADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("subtitles.whisperx_vad_method: unsupported value %q (want silero or pyannote)", c.Subtitles.WhisperXVADMethod)
	}
	if c.Subtitles.FontSize <= 0 {
		return errors.New("subtitles.font_size must be positive")
	}
	return nil
}

func (c *Config) validateSheets() error {
	if !c.Sheets.Enabled {
		return nil
	}
	if c.Sheets.SpreadsheetID == "" {
		return errors.New("sheets.spreadsheet_id must be set when sheets.enabled is true (or set GOOGLE_SHEETS_ID)")
	}
	if c.Sheets.CredentialsFile == "" {
		return errors.New("sheets.credentials_file must be set when sheets.enabled is true (or set GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Concurrency < 1 {
		return errors.New("pipeline.concurrency must be at least 1")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
