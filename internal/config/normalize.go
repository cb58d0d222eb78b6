package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeElevenLabs()
	if err := c.normalizeMusic(); err != nil {
		return err
	}
	c.normalizeSubtitles()
	if err := c.normalizeSheets(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(strings.TrimSpace(c.Paths.WorkspaceDir)); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	base := c.Paths.WorkspaceDir
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
		{"paths.work_dir", &c.Paths.WorkDir, defaultWorkDir},
		{"paths.ideas_file", &c.Paths.IdeasFile, defaultIdeasFile},
		{"paths.podcast_ideas_file", &c.Paths.PodcastIdeasFile, defaultPodcastIdeasFile},
		{"paths.scripts_dir", &c.Paths.ScriptsDir, defaultScriptsDir},
		{"paths.podcast_scripts_dir", &c.Paths.PodcastScriptsDir, defaultPodcastScriptsDir},
		{"paths.illustrations_dir", &c.Paths.IllustrationsDir, defaultIllustrationsDir},
		{"paths.audio_dir", &c.Paths.AudioDir, defaultAudioDir},
		{"paths.video_dir", &c.Paths.VideoDir, defaultVideoDir},
		{"paths.mixed_dir", &c.Paths.MixedDir, defaultMixedDir},
		{"paths.final_dir", &c.Paths.FinalDir, defaultFinalDir},
		{"paths.subtitles_dir", &c.Paths.SubtitlesDir, defaultSubtitlesDir},
		{"paths.archived_subtitles_dir", &c.Paths.ArchivedSubtitlesDir, defaultArchivedSubtitlesDir},
		{"paths.voices_file", &c.Paths.VoicesFile, ""},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		if *field.value, err = resolveAgainst(base, *field.value); err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = defaultLLMProvider
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		envKey := "GEMINI_API_KEY"
		if c.LLM.Provider == ProviderOpenAICompatible {
			envKey = "OPENAI_API_KEY"
		}
		if value, ok := os.LookupEnv(envKey); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" && c.LLM.Provider == ProviderOpenAICompatible {
		c.LLM.BaseURL = defaultOpenAIChatURL
	}
	c.LLM.IdeasModel = fallback(c.LLM.IdeasModel, defaultIdeasModel)
	c.LLM.ScriptModel = fallback(c.LLM.ScriptModel, defaultScriptModel)
	c.LLM.TranslationModel = fallback(c.LLM.TranslationModel, defaultTranslationModel)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.Illustration.Model = fallback(c.Illustration.Model, defaultIllustrationModel)
	c.Illustration.Style = fallback(c.Illustration.Style, defaultIllustrationStyle)
}

func (c *Config) normalizeElevenLabs() {
	c.ElevenLabs.APIKey = strings.TrimSpace(c.ElevenLabs.APIKey)
	if c.ElevenLabs.APIKey == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
			c.ElevenLabs.APIKey = strings.TrimSpace(value)
		}
	}
	c.ElevenLabs.BaseURL = strings.TrimRight(fallback(c.ElevenLabs.BaseURL, defaultElevenLabsBaseURL), "/")
	c.ElevenLabs.Mode = strings.ToLower(fallback(c.ElevenLabs.Mode, defaultElevenLabsMode))
	c.ElevenLabs.DialogueModelID = fallback(c.ElevenLabs.DialogueModelID, defaultDialogueModelID)
	c.ElevenLabs.TurnModelID = fallback(c.ElevenLabs.TurnModelID, defaultTurnModelID)
	c.ElevenLabs.OutputFormat = fallback(c.ElevenLabs.OutputFormat, defaultOutputFormat)
	c.Video.AudioBitrate = fallback(c.Video.AudioBitrate, defaultAudioBitrate)
	c.Video.FFmpegBinary = fallback(c.Video.FFmpegBinary, defaultFFmpegBinary)
	c.Video.FFprobeBinary = fallback(c.Video.FFprobeBinary, defaultFFprobeBinary)
}

func (c *Config) normalizeMusic() error {
	var err error
	if c.Music.File, err = resolveAgainst(c.Paths.WorkspaceDir, c.Music.File); err != nil {
		return fmt.Errorf("music.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Provider = strings.ToLower(fallback(c.Subtitles.Provider, defaultSubtitleProvider))
	c.Subtitles.Format = strings.ToLower(fallback(c.Subtitles.Format, defaultSubtitleFormat))
	c.Subtitles.Language = strings.ToLower(fallback(c.Subtitles.Language, defaultSubtitleLanguage))
	c.Subtitles.TranslateTo = strings.TrimSpace(c.Subtitles.TranslateTo)
	c.Subtitles.FontName = fallback(c.Subtitles.FontName, defaultFontName)
	if c.Subtitles.FontSize == 0 {
		c.Subtitles.FontSize = defaultFontSize
	}
	c.Subtitles.WhisperXModel = fallback(c.Subtitles.WhisperXModel, defaultWhisperXModel)
	c.Subtitles.WhisperXVADMethod = strings.ToLower(fallback(c.Subtitles.WhisperXVADMethod, defaultWhisperXVADMethod))
	c.Subtitles.WhisperXHFToken = strings.TrimSpace(c.Subtitles.WhisperXHFToken)
	if c.Subtitles.WhisperXHFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Subtitles.WhisperXHFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Subtitles.WhisperXHFToken = strings.TrimSpace(value)
		}
	}
	c.Subtitles.OpenAIAPIKey = strings.TrimSpace(c.Subtitles.OpenAIAPIKey)
	if c.Subtitles.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Subtitles.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.Subtitles.OpenAIBaseURL = strings.TrimRight(fallback(c.Subtitles.OpenAIBaseURL, defaultOpenAIBaseURL), "/")
	c.Subtitles.OpenAIModel = fallback(c.Subtitles.OpenAIModel, defaultOpenAIModel)
}

func (c *Config) normalizeSheets() error {
	c.Sheets.SpreadsheetID = strings.TrimSpace(c.Sheets.SpreadsheetID)
	if c.Sheets.SpreadsheetID == "" {
		if value, ok := os.LookupEnv("GOOGLE_SHEETS_ID"); ok {
			c.Sheets.SpreadsheetID = strings.TrimSpace(value)
		}
	}
	c.Sheets.CredentialsFile = strings.TrimSpace(c.Sheets.CredentialsFile)
	if c.Sheets.CredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_SERVICE_ACCOUNT_FILE"); ok {
			c.Sheets.CredentialsFile = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Sheets.CredentialsFile, err = resolveAgainst(c.Paths.WorkspaceDir, c.Sheets.CredentialsFile); err != nil {
		return fmt.Errorf("sheets.credentials_file: %w", err)
	}
	c.Sheets.ConversationSheet = fallback(c.Sheets.ConversationSheet, defaultConversationSheet)
	c.Sheets.PodcastSheet = fallback(c.Sheets.PodcastSheet, defaultPodcastSheet)
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyServer = strings.TrimRight(fallback(c.Notifications.NtfyServer, defaultNtfyServer), "/")
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Pipeline.Concurrency == 0 {
		c.Pipeline.Concurrency = defaultPipelineConcurrent
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func fallback(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}
