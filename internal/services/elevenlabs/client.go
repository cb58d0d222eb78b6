// Package elevenlabs is a small HTTP client for the ElevenLabs text-to-dialogue
// and text-to-speech endpoints.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/services/retry"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io"
	defaultOutputFormat = "mp3_44100_128"
	defaultTimeout      = 300 * time.Second
)

// Config captures the ElevenLabs settings.
type Config struct {
	APIKey          string
	BaseURL         string
	DialogueModelID string
	TurnModelID     string
	OutputFormat    string
	Stability       float64
	SimilarityBoost float64
	TimeoutSeconds  int
}

// Turn is one dialogue input.
type Turn struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// Client talks to the ElevenLabs API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     retry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) { c.policy = policy }
}

// New constructs a client.
func New(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = defaultOutputFormat
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		policy:     retry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type dialogueRequest struct {
	Inputs  []Turn `json:"inputs"`
	ModelID string `json:"model_id,omitempty"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Dialogue renders all turns in one text-to-dialogue call and returns the
// encoded audio.
func (c *Client) Dialogue(ctx context.Context, turns []Turn) ([]byte, error) {
	if len(turns) == 0 {
		return nil, errors.New("elevenlabs dialogue: no turns")
	}
	for i, turn := range turns {
		if strings.TrimSpace(turn.Text) == "" || strings.TrimSpace(turn.VoiceID) == "" {
			return nil, fmt.Errorf("elevenlabs dialogue: turn %d needs text and voice_id", i)
		}
	}
	body := dialogueRequest{Inputs: turns, ModelID: c.cfg.DialogueModelID}
	return c.postAudio(ctx, "elevenlabs dialogue", "/v1/text-to-dialogue", body)
}

// Speech renders one text with one voice.
func (c *Client) Speech(ctx context.Context, voiceID, text string) ([]byte, error) {
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" || strings.TrimSpace(text) == "" {
		return nil, errors.New("elevenlabs speech: voice id and text required")
	}
	body := speechRequest{
		Text:    text,
		ModelID: c.cfg.TurnModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	}
	return c.postAudio(ctx, "elevenlabs speech", "/v1/text-to-speech/"+url.PathEscape(voiceID), body)
}

// HealthCheck verifies the API key by reading the account profile.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("elevenlabs health: api key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/user", nil)
	if err != nil {
		return fmt.Errorf("elevenlabs health: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs health: %w", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return retry.NewStatusError("elevenlabs health", resp, data)
	}
	return nil
}

func (c *Client) postAudio(ctx context.Context, op, path string, payload any) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key required", op)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", op, err)
	}
	endpoint := c.cfg.BaseURL + path + "?output_format=" + url.QueryEscape(c.cfg.OutputFormat)

	var audio []byte
	err = c.policy.Do(ctx, op, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
		if err != nil {
			return fmt.Errorf("%s: new request: %w", op, err)
		}
		req.Header.Set("xi-api-key", c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/mpeg")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s: http error: %w", op, err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.Retryable(fmt.Errorf("%s: read body: %w", op, err))
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return retry.NewStatusError(op, resp, data)
		}
		if len(data) == 0 {
			return retry.Retryable(fmt.Errorf("%s: empty audio response", op))
		}
		audio = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}
