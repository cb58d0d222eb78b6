package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/deps"
)

// HealthChecker is implemented by API clients with a cheap authenticated
// probe endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CheckRemote probes an API with a 30-second timeout.
func CheckRemote(ctx context.Context, name string, client HealthChecker) Result {
	if client == nil {
		return Result{Name: name, Detail: "not configured"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMusicFile verifies the background music track is readable.
func CheckMusicFile(path string) Result {
	const name = "Background music"
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	case info.IsDir() || info.Size() == 0:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a non-empty file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckCredentials reports which required API keys are present.
func CheckCredentials(cfg *config.Config) []Result {
	results := []Result{
		keyResult("LLM API key", cfg.LLM.APIKey, "GEMINI_API_KEY"),
		keyResult("ElevenLabs API key", cfg.ElevenLabs.APIKey, "ELEVENLABS_API_KEY"),
	}
	if cfg.Subtitles.Provider == config.SubtitleProviderOpenAI {
		results = append(results, keyResult("OpenAI API key", cfg.Subtitles.OpenAIAPIKey, "OPENAI_API_KEY"))
	}
	if cfg.Sheets.Enabled {
		results = append(results, keyResult("Sheets spreadsheet ID", cfg.Sheets.SpreadsheetID, "GOOGLE_SHEETS_ID"))
		creds := Result{Name: "Sheets credentials", Passed: true, Detail: cfg.Sheets.CredentialsFile}
		if _, err := os.Stat(cfg.Sheets.CredentialsFile); err != nil {
			creds = Result{Name: "Sheets credentials", Detail: fmt.Sprintf("%s (error: %v)", cfg.Sheets.CredentialsFile, err)}
		}
		results = append(results, creds)
	}
	return results
}

func keyResult(name, value, env string) Result {
	if strings.TrimSpace(value) == "" {
		return Result{Name: name, Detail: fmt.Sprintf("missing (set it in config or %s)", env)}
	}
	return Result{Name: name, Passed: true, Detail: "configured"}
}

// CheckSystemDeps evaluates the external binaries the configured stages use.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{Name: "FFmpeg", Command: cfg.FFmpegBinary(), Stages: []string{"illustrate", "video", "mix", "subtitle"}},
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Stages: []string{"video", "mix"}},
		{
			Name:     "uvx",
			Command:  "uvx",
			Stages:   []string{"subtitle"},
			Optional: cfg.Subtitles.Provider != config.SubtitleProviderWhisperX,
		},
	}
	return deps.CheckBinaries(requirements)
}

// summarizeError produces a human-readable summary for API health check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
