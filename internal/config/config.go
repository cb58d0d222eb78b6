package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the workspace layout. Relative values resolve against
// WorkspaceDir.
type Paths struct {
	WorkspaceDir         string `toml:"workspace_dir"`
	StateDir             string `toml:"state_dir"`
	WorkDir              string `toml:"work_dir"`
	IdeasFile            string `toml:"ideas_file"`
	PodcastIdeasFile     string `toml:"podcast_ideas_file"`
	ScriptsDir           string `toml:"scripts_dir"`
	PodcastScriptsDir    string `toml:"podcast_scripts_dir"`
	IllustrationsDir     string `toml:"illustrations_dir"`
	AudioDir             string `toml:"audio_dir"`
	VideoDir             string `toml:"video_dir"`
	MixedDir             string `toml:"mixed_dir"`
	FinalDir             string `toml:"final_dir"`
	SubtitlesDir         string `toml:"subtitles_dir"`
	ArchivedSubtitlesDir string `toml:"archived_subtitles_dir"`
	VoicesFile           string `toml:"voices_file"`
}

// LLM contains text generation settings shared by the idea, script, and
// translation steps.
type LLM struct {
	Provider          string  `toml:"provider"`
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	IdeasModel        string  `toml:"ideas_model"`
	ScriptModel       string  `toml:"script_model"`
	TranslationModel  string  `toml:"translation_model"`
	ScriptTemperature float64 `toml:"script_temperature"`
	Referer           string  `toml:"referer"`
	Title             string  `toml:"title"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Ideas controls batch sizes for idea generation.
type Ideas struct {
	ConversationCount int `toml:"conversation_count"`
	PodcastCount      int `toml:"podcast_count"`
}

// Illustration contains image generation settings.
type Illustration struct {
	Model string `toml:"model"`
	Style string `toml:"style"`
}

// ElevenLabs contains speech synthesis settings.
type ElevenLabs struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	Mode            string  `toml:"mode"`
	DialogueModelID string  `toml:"dialogue_model_id"`
	TurnModelID     string  `toml:"turn_model_id"`
	OutputFormat    string  `toml:"output_format"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// Video contains still-image assembly settings and media tool binaries.
type Video struct {
	Width         int    `toml:"width"`
	Height        int    `toml:"height"`
	AudioBitrate  string `toml:"audio_bitrate"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Music contains background music mixing settings.
type Music struct {
	Enabled        bool    `toml:"enabled"`
	File           string  `toml:"file"`
	Volume         float64 `toml:"volume"`
	FadeOutSeconds float64 `toml:"fade_out_seconds"`
}

// Subtitles contains transcription, translation, and burn-in settings.
type Subtitles struct {
	Provider          string `toml:"provider"`
	Format            string `toml:"format"`
	Language          string `toml:"language"`
	TranslateTo       string `toml:"translate_to"`
	FontName          string `toml:"font_name"`
	FontSize          int    `toml:"font_size"`
	WhisperXModel     string `toml:"whisperx_model"`
	WhisperXCUDA      bool   `toml:"whisperx_cuda_enabled"`
	WhisperXVADMethod string `toml:"whisperx_vad_method"`
	WhisperXHFToken   string `toml:"whisperx_hf_token"`
	OpenAIAPIKey      string `toml:"openai_api_key"`
	OpenAIBaseURL     string `toml:"openai_base_url"`
	OpenAIModel       string `toml:"openai_model"`
}

// Sheets contains the Google Sheets idea registry settings.
type Sheets struct {
	Enabled           bool   `toml:"enabled"`
	SpreadsheetID     string `toml:"spreadsheet_id"`
	CredentialsFile   string `toml:"credentials_file"`
	ConversationSheet string `toml:"conversation_sheet"`
	PodcastSheet      string `toml:"podcast_sheet"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyServer     string `toml:"ntfy_server"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	StageFailures  bool   `toml:"stage_failures"`
	StageComplete  bool   `toml:"stage_complete"`
	RunComplete    bool   `toml:"run_complete"`
}

// Pipeline contains run behaviour shared by every stage.
type Pipeline struct {
	Overwrite   bool `toml:"overwrite"`
	Concurrency int  `toml:"concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for kielo.
//
// Configuration sections by subsystem:
//   - Paths: workspace layout and artifact directories
//   - LLM: text generation provider and models
//   - Ideas: idea batch sizes
//   - Illustration: image model and style
//   - ElevenLabs: speech synthesis
//   - Video: canvas size and ffmpeg binaries
//   - Music: background music mix
//   - Subtitles: transcription, translation, burn-in
//   - Sheets: Google Sheets idea registry
//   - Notifications: ntfy push notification settings
//   - Pipeline: overwrite and concurrency
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Ideas         Ideas         `toml:"ideas"`
	Illustration  Illustration  `toml:"illustration"`
	ElevenLabs    ElevenLabs    `toml:"elevenlabs"`
	Video         Video         `toml:"video"`
	Music         Music         `toml:"music"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Sheets        Sheets        `toml:"sheets"`
	Notifications Notifications `toml:"notifications"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kielo/config.toml")
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kielo.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ArtifactDirs lists every directory a pipeline run writes into.
func (c *Config) ArtifactDirs() []string {
	return []string{
		c.Paths.ScriptsDir,
		c.Paths.PodcastScriptsDir,
		c.Paths.IllustrationsDir,
		c.Paths.AudioDir,
		c.Paths.VideoDir,
		c.Paths.MixedDir,
		c.Paths.FinalDir,
		c.Paths.SubtitlesDir,
		c.Paths.ArchivedSubtitlesDir,
	}
}

// EnsureDirectories creates the state, work, log, and artifact directories.
func (c *Config) EnsureDirectories() error {
	dirs := append([]string{c.Paths.StateDir, c.Paths.WorkDir, c.LogDir()}, c.ArtifactDirs()...)
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogDir returns the directory holding kielo.log.
func (c *Config) LogDir() string {
	return filepath.Join(c.Paths.StateDir, "logs")
}

// ManifestPath returns the location of the sqlite manifest.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.StateDir, "manifest.db")
}

// LockPath returns the location of the workspace lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "kielo.lock")
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if c == nil || strings.TrimSpace(c.Video.FFmpegBinary) == "" {
		return defaultFFmpegBinary
	}
	return c.Video.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	if c == nil || strings.TrimSpace(c.Video.FFprobeBinary) == "" {
		return defaultFFprobeBinary
	}
	return c.Video.FFprobeBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// resolveAgainst expands pathValue and anchors relative values at base.
func resolveAgainst(base, pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if !strings.HasPrefix(pathValue, "~") && !filepath.IsAbs(pathValue) {
		pathValue = filepath.Join(base, pathValue)
	}
	return expandPath(pathValue)
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
