package config

const (
	defaultWorkspaceDir         = "."
	defaultStateDir             = ".kielo"
	defaultWorkDir              = "temp_processing"
	defaultIdeasFile            = "ideas.json"
	defaultPodcastIdeasFile     = "podcast_ideas.json"
	defaultScriptsDir           = "scripts"
	defaultPodcastScriptsDir    = "podcast_scripts"
	defaultIllustrationsDir     = "illustrations"
	defaultAudioDir             = "mp3"
	defaultVideoDir             = "output_videos"
	defaultMixedDir             = "mixed_videos"
	defaultFinalDir             = "final_subtitled_videos"
	defaultSubtitlesDir         = "subtitles"
	defaultArchivedSubtitlesDir = "subtitles_archived"

	ProviderGemini           = "gemini"
	ProviderOpenAICompatible = "openai_compatible"

	defaultLLMProvider        = ProviderGemini
	defaultOpenAIChatURL      = "https://api.openai.com/v1/chat/completions"
	defaultIdeasModel         = "gemini-2.5-pro"
	defaultScriptModel        = "gemini-2.5-flash"
	defaultTranslationModel   = "gemini-2.5-flash"
	defaultScriptTemperature  = 0.8
	defaultLLMTimeoutSeconds  = 120
	defaultLLMReferer         = "https://github.com/hoangt2/kielo-convo-generator"
	defaultLLMTitle           = "kielo"
	defaultConversationIdeas  = 10
	defaultPodcastIdeas       = 3
	defaultIllustrationModel  = "gemini-2.5-flash-image"
	defaultIllustrationStyle  = "Modern flat illustration with clean lines and a soft, muted color palette. Friendly, rounded characters with minimal details. Warm and whimsical mood, no harsh outlines, simplified color-block backgrounds."
	defaultElevenLabsBaseURL  = "https://api.elevenlabs.io"
	ElevenLabsModeDialogue    = "dialogue"
	ElevenLabsModeTurns       = "turns"
	defaultElevenLabsMode     = ElevenLabsModeDialogue
	defaultDialogueModelID    = "eleven_v3"
	defaultTurnModelID        = "eleven_multilingual_v2"
	defaultOutputFormat       = "mp3_44100_128"
	defaultStability          = 0.5
	defaultSimilarityBoost    = 0.75
	defaultElevenLabsTimeout  = 300
	defaultVideoWidth         = 720
	defaultVideoHeight        = 1280
	defaultAudioBitrate       = "192k"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultMusicFile          = "assets/background_music.mp3"
	defaultMusicVolume        = 0.12
	defaultMusicFadeOut       = 3.0
	SubtitleProviderWhisperX  = "whisperx"
	SubtitleProviderOpenAI    = "openai"
	SubtitleFormatASS         = "ass"
	SubtitleFormatSRT         = "srt"
	defaultSubtitleProvider   = SubtitleProviderWhisperX
	defaultSubtitleFormat     = SubtitleFormatASS
	defaultSubtitleLanguage   = "fi"
	defaultTranslateTo        = "en"
	defaultFontName           = "Arial"
	defaultFontSize           = 16
	defaultWhisperXModel      = "large-v3"
	defaultWhisperXVADMethod  = "silero"
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAIModel        = "whisper-1"
	defaultConversationSheet  = "Conversations"
	defaultPodcastSheet       = "Podcasts"
	defaultNtfyServer         = "https://ntfy.sh"
	defaultNotifyTimeout      = 10
	defaultPipelineConcurrent = 1
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir:         defaultWorkspaceDir,
			StateDir:             defaultStateDir,
			WorkDir:              defaultWorkDir,
			IdeasFile:            defaultIdeasFile,
			PodcastIdeasFile:     defaultPodcastIdeasFile,
			ScriptsDir:           defaultScriptsDir,
			PodcastScriptsDir:    defaultPodcastScriptsDir,
			IllustrationsDir:     defaultIllustrationsDir,
			AudioDir:             defaultAudioDir,
			VideoDir:             defaultVideoDir,
			MixedDir:             defaultMixedDir,
			FinalDir:             defaultFinalDir,
			SubtitlesDir:         defaultSubtitlesDir,
			ArchivedSubtitlesDir: defaultArchivedSubtitlesDir,
		},
		LLM: LLM{
			Provider:          defaultLLMProvider,
			IdeasModel:        defaultIdeasModel,
			ScriptModel:       defaultScriptModel,
			TranslationModel:  defaultTranslationModel,
			ScriptTemperature: defaultScriptTemperature,
			Referer:           defaultLLMReferer,
			Title:             defaultLLMTitle,
			TimeoutSeconds:    defaultLLMTimeoutSeconds,
		},
		Ideas: Ideas{
			ConversationCount: defaultConversationIdeas,
			PodcastCount:      defaultPodcastIdeas,
		},
		Illustration: Illustration{
			Model: defaultIllustrationModel,
			Style: defaultIllustrationStyle,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:         defaultElevenLabsBaseURL,
			Mode:            defaultElevenLabsMode,
			DialogueModelID: defaultDialogueModelID,
			TurnModelID:     defaultTurnModelID,
			OutputFormat:    defaultOutputFormat,
			Stability:       defaultStability,
			SimilarityBoost: defaultSimilarityBoost,
			TimeoutSeconds:  defaultElevenLabsTimeout,
		},
		Video: Video{
			Width:         defaultVideoWidth,
			Height:        defaultVideoHeight,
			AudioBitrate:  defaultAudioBitrate,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Music: Music{
			Enabled:        true,
			File:           defaultMusicFile,
			Volume:         defaultMusicVolume,
			FadeOutSeconds: defaultMusicFadeOut,
		},
		Subtitles: Subtitles{
			Provider:          defaultSubtitleProvider,
			Format:            defaultSubtitleFormat,
			Language:          defaultSubtitleLanguage,
			TranslateTo:       defaultTranslateTo,
			FontName:          defaultFontName,
			FontSize:          defaultFontSize,
			WhisperXModel:     defaultWhisperXModel,
			WhisperXVADMethod: defaultWhisperXVADMethod,
			OpenAIBaseURL:     defaultOpenAIBaseURL,
			OpenAIModel:       defaultOpenAIModel,
		},
		Sheets: Sheets{
			ConversationSheet: defaultConversationSheet,
			PodcastSheet:      defaultPodcastSheet,
		},
		Notifications: Notifications{
			NtfyServer:     defaultNtfyServer,
			RequestTimeout: defaultNotifyTimeout,
			StageFailures:  true,
			StageComplete:  false,
			RunComplete:    true,
		},
		Pipeline: Pipeline{
			Concurrency: defaultPipelineConcurrent,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
