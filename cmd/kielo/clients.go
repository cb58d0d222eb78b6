package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hoangt2/kielo-convo-generator/internal/assembly"
	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/content"
	"github.com/hoangt2/kielo-convo-generator/internal/finalize"
	"github.com/hoangt2/kielo-convo-generator/internal/ideation"
	"github.com/hoangt2/kielo-convo-generator/internal/illustration"
	"github.com/hoangt2/kielo-convo-generator/internal/logging"
	"github.com/hoangt2/kielo-convo-generator/internal/media/ffmpeg"
	"github.com/hoangt2/kielo-convo-generator/internal/media/ffprobe"
	"github.com/hoangt2/kielo-convo-generator/internal/mixing"
	"github.com/hoangt2/kielo-convo-generator/internal/narration"
	"github.com/hoangt2/kielo-convo-generator/internal/scripting"
	"github.com/hoangt2/kielo-convo-generator/internal/services/elevenlabs"
	"github.com/hoangt2/kielo-convo-generator/internal/services/gemini"
	"github.com/hoangt2/kielo-convo-generator/internal/services/llm"
	"github.com/hoangt2/kielo-convo-generator/internal/services/sheets"
	"github.com/hoangt2/kielo-convo-generator/internal/services/whisperapi"
	"github.com/hoangt2/kielo-convo-generator/internal/services/whisperx"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
	"github.com/hoangt2/kielo-convo-generator/internal/voices"
	"github.com/hoangt2/kielo-convo-generator/internal/workflow"
)

// clients holds the external collaborators built from configuration. Fields
// stay nil when their credentials are missing so the stage health checks can
// name the gap.
type clients struct {
	text        textgen.Generator
	images      illustration.ImageGenerator
	gemini      *gemini.Client
	llm         *llm.Client
	elevenlabs  *elevenlabs.Client
	transcriber finalize.Transcriber
	registry    ideation.TitleRegistry
	pool        voices.Pool
	ffmpeg      *ffmpeg.Invoker
	ffprobe     *ffprobe.Prober
}

func (c *clients) Close() {
	if c.gemini != nil {
		_ = c.gemini.Close()
	}
}

// buildClients wires every collaborator. Only configuration errors that make
// the pipeline unusable (an unreadable voices file) are returned; missing
// keys are logged and leave the client unset.
func buildClients(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*clients, error) {
	pool, err := voices.Load(cfg.Paths.VoicesFile)
	if err != nil {
		return nil, err
	}
	out := &clients{
		pool:    pool,
		ffmpeg:  ffmpeg.New(cfg.FFmpegBinary(), cfg.Video.AudioBitrate),
		ffprobe: ffprobe.NewProber(cfg.FFprobeBinary()),
	}

	switch cfg.LLM.Provider {
	case config.ProviderOpenAICompatible:
		if strings.TrimSpace(cfg.LLM.APIKey) != "" {
			out.llm = llm.NewClient(llm.Config{
				APIKey:         cfg.LLM.APIKey,
				BaseURL:        cfg.LLM.BaseURL,
				Model:          cfg.LLM.ScriptModel,
				Referer:        cfg.LLM.Referer,
				Title:          cfg.LLM.Title,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			})
			out.text = out.llm
		}
	default:
		if strings.TrimSpace(cfg.LLM.APIKey) != "" {
			client, err := gemini.NewClient(ctx, cfg.LLM.APIKey, nil, gemini.WithDefaultModel(cfg.LLM.ScriptModel))
			if err != nil {
				return nil, err
			}
			out.gemini = client
			out.text = client
			out.images = client
		}
	}
	if out.text == nil {
		logging.WarnWithContext(logger, "text generator unavailable", "client_missing",
			logging.String("provider", cfg.LLM.Provider),
			logging.String(logging.FieldImpact, "ideas, scripts and translation stages cannot run"),
			logging.String(logging.FieldErrorHint, "set llm.api_key or the provider's API key variable"),
		)
	}

	if strings.TrimSpace(cfg.ElevenLabs.APIKey) != "" {
		out.elevenlabs = elevenlabs.New(elevenlabs.Config{
			APIKey:          cfg.ElevenLabs.APIKey,
			BaseURL:         cfg.ElevenLabs.BaseURL,
			DialogueModelID: cfg.ElevenLabs.DialogueModelID,
			TurnModelID:     cfg.ElevenLabs.TurnModelID,
			OutputFormat:    cfg.ElevenLabs.OutputFormat,
			Stability:       cfg.ElevenLabs.Stability,
			SimilarityBoost: cfg.ElevenLabs.SimilarityBoost,
			TimeoutSeconds:  cfg.ElevenLabs.TimeoutSeconds,
		})
	}

	switch cfg.Subtitles.Provider {
	case config.SubtitleProviderOpenAI:
		client, err := whisperapi.New(whisperapi.Config{
			APIKey:  cfg.Subtitles.OpenAIAPIKey,
			BaseURL: cfg.Subtitles.OpenAIBaseURL,
			Model:   cfg.Subtitles.OpenAIModel,
		})
		if err != nil {
			logging.WarnWithContext(logger, "whisper api unavailable", "client_missing",
				logging.Error(err),
				logging.String(logging.FieldImpact, "subtitle stage cannot run"),
				logging.String(logging.FieldErrorHint, "set subtitles.openai_api_key or OPENAI_API_KEY"),
			)
		} else {
			out.transcriber = client
		}
	default:
		out.transcriber = whisperx.NewService(whisperx.Config{
			Model:       cfg.Subtitles.WhisperXModel,
			CUDAEnabled: cfg.Subtitles.WhisperXCUDA,
			VADMethod:   cfg.Subtitles.WhisperXVADMethod,
			HFToken:     cfg.Subtitles.WhisperXHFToken,
		})
	}

	if cfg.Sheets.Enabled {
		client, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			CredentialsFile: cfg.Sheets.CredentialsFile,
		})
		if err != nil {
			logging.WarnWithContext(logger, "idea registry unavailable", "sheets_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "ideas are generated without duplicate filtering"),
				logging.String(logging.FieldErrorHint, "check sheets.credentials_file and sheets.spreadsheet_id"),
			)
		} else {
			out.registry = client
		}
	}
	return out, nil
}

// stageSet builds the seven handlers for mode. The ElevenLabs pointer is
// converted only when set so the audio health check sees a true nil.
func (c *clients) stageSet(cfg *config.Config, mode content.Mode) workflow.StageSet {
	var synth narration.Synthesizer
	if c.elevenlabs != nil {
		synth = c.elevenlabs
	}
	return workflow.StageSet{
		Ideas:      ideation.NewHandler(cfg, mode, c.text, c.registry, c.pool),
		Scripts:    scripting.NewHandler(cfg, mode, c.text),
		Illustrate: illustration.NewHandler(cfg, mode, c.images, c.ffmpeg),
		Audio:      narration.NewHandler(cfg, mode, synth, c.ffmpeg),
		Video:      assembly.NewHandler(cfg, mode, c.ffmpeg, c.ffprobe),
		Mix:        mixing.NewHandler(cfg, mode, c.ffmpeg, c.ffprobe),
		Subtitle:   finalize.NewHandler(cfg, mode, c.transcriber, c.text, c.ffmpeg),
	}
}

func describeProvider(cfg *config.Config) string {
	return fmt.Sprintf("%s (%s)", cfg.LLM.Provider, cfg.LLM.ScriptModel)
}
