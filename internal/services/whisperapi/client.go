// Package whisperapi transcribes audio through the OpenAI Whisper API.
package whisperapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	langpkg "github.com/hoangt2/kielo-convo-generator/internal/language"
	"github.com/hoangt2/kielo-convo-generator/internal/services/retry"
	"github.com/hoangt2/kielo-convo-generator/internal/subtitles"
)

// Config captures the API settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client wraps go-openai's transcription endpoint.
type Client struct {
	api    *openai.Client
	model  string
	policy retry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) { c.policy = policy }
}

// New constructs a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("whisper api: api key required")
	}
	oc := openai.DefaultConfig(key)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		oc.BaseURL = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.Whisper1
	}
	c := &Client{api: openai.NewClientWithConfig(oc), model: model, policy: retry.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name identifies the provider in logs.
func (c *Client) Name() string { return "openai" }

// Model returns the transcription model.
func (c *Client) Model() string { return c.model }

// Transcribe uploads the audio file and returns verbose_json segments.
// outputDir is unused; the API returns segments inline.
func (c *Client) Transcribe(ctx context.Context, source, _ string, language string) ([]subtitles.Segment, error) {
	const op = "whisper api transcribe"
	req := openai.AudioRequest{
		Model:    c.model,
		FilePath: source,
		Language: langpkg.ToISO2(language),
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	var resp openai.AudioResponse
	err := c.policy.Do(ctx, op, func(int) error {
		r, err := c.api.CreateTranscription(ctx, req)
		if err != nil {
			return classify(op, err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	segments := make([]subtitles.Segment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, subtitles.Segment{Start: seg.Start, End: seg.End, Text: strings.TrimSpace(seg.Text)})
	}
	if len(segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		segments = append(segments, subtitles.Segment{Start: 0, End: resp.Duration, Text: strings.TrimSpace(resp.Text)})
	}
	return segments, nil
}

func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &retry.StatusError{Op: op, StatusCode: apiErr.HTTPStatusCode, Body: retry.Snippet(apiErr.Message)}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &retry.StatusError{Op: op, StatusCode: reqErr.HTTPStatusCode, Body: retry.Snippet(reqErr.Error())}
	}
	return fmt.Errorf("%s: %w", op, err)
}
