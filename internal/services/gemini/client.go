package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hoangt2/kielo-convo-generator/internal/services/retry"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
)

// generationConfig is the subset of model settings a call may change.
type generationConfig struct {
	System      string
	MIMEType    string
	Schema      *genai.Schema
	Temperature *float32
}

// backend issues one GenerateContent call. The genai implementation is
// replaced in tests.
type backend interface {
	generate(ctx context.Context, model string, cfg generationConfig, prompt string) (*genai.GenerateContentResponse, error)
	close() error
}

type genaiBackend struct {
	client *genai.Client
}

func (b *genaiBackend) generate(ctx context.Context, model string, cfg generationConfig, prompt string) (*genai.GenerateContentResponse, error) {
	m := b.client.GenerativeModel(model)
	if cfg.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(cfg.System)}}
	}
	if cfg.MIMEType != "" {
		m.ResponseMIMEType = cfg.MIMEType
	}
	if cfg.Schema != nil {
		m.ResponseSchema = cfg.Schema
	}
	if cfg.Temperature != nil {
		m.SetTemperature(*cfg.Temperature)
	}
	return m.GenerateContent(ctx, genai.Text(prompt))
}

func (b *genaiBackend) close() error {
	return b.client.Close()
}

// Client serves textgen.Generator and image generation from Gemini.
type Client struct {
	backend      backend
	defaultModel string
	policy       retry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) { c.policy = policy }
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(c *Client) { c.defaultModel = strings.TrimSpace(model) }
}

// NewClient dials Gemini with the API key. Extra client options (endpoint,
// HTTP client) are appended after the key.
func NewClient(ctx context.Context, apiKey string, clientOpts []option.ClientOption, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, clientOpts...)
	gc, err := genai.NewClient(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return newWithBackend(&genaiBackend{client: gc}, opts...), nil
}

func newWithBackend(b backend, opts ...Option) *Client {
	c := &Client{backend: b, policy: retry.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.close()
}

// GenerateJSON returns the concatenated text parts of the first candidate.
func (c *Client) GenerateJSON(ctx context.Context, req textgen.Request) (string, error) {
	op := "gemini " + firstNonEmpty(req.Operation, "generate")
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("%s: prompt required", op)
	}
	cfg := generationConfig{
		System:      strings.TrimSpace(req.System),
		MIMEType:    "application/json",
		Temperature: req.Temperature,
	}
	if req.Schema != nil {
		schema, err := ConvertSchema(req.Schema)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		cfg.Schema = schema
	}
	resp, err := c.call(ctx, op, c.model(req.Model), cfg, req.Prompt)
	if err != nil {
		return "", err
	}
	cand, err := firstCandidate(op, resp)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("%s: response has no text (finish reason %s)", op, cand.FinishReason)
	}
	return out, nil
}

// GenerateImage returns the first image blob produced for prompt.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string) ([]byte, string, error) {
	const op = "gemini image"
	if strings.TrimSpace(prompt) == "" {
		return nil, "", fmt.Errorf("%s: prompt required", op)
	}
	resp, err := c.call(ctx, op, c.model(model), generationConfig{}, prompt)
	if err != nil {
		return nil, "", err
	}
	cand, err := firstCandidate(op, resp)
	if err != nil {
		return nil, "", err
	}
	for _, part := range cand.Content.Parts {
		blob, ok := part.(genai.Blob)
		if !ok || len(blob.Data) == 0 {
			continue
		}
		if blob.MIMEType == "" || strings.HasPrefix(blob.MIMEType, "image/") {
			return blob.Data, blob.MIMEType, nil
		}
	}
	return nil, "", fmt.Errorf("%s: no image part in response", op)
}

func (c *Client) model(name string) string {
	return firstNonEmpty(name, c.defaultModel)
}

func (c *Client) call(ctx context.Context, op, model string, cfg generationConfig, prompt string) (*genai.GenerateContentResponse, error) {
	if model == "" {
		return nil, fmt.Errorf("%s: model required", op)
	}
	var resp *genai.GenerateContentResponse
	err := c.policy.Do(ctx, op, func(int) error {
		r, err := c.backend.generate(ctx, model, cfg, prompt)
		if err != nil {
			return classify(op, err)
		}
		resp = r
		return nil
	})
	return resp, err
}

// classify turns googleapi status codes into retry.StatusError so transient
// failures are retried.
func classify(op string, err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &retry.StatusError{Op: op, StatusCode: apiErr.Code, Body: retry.Snippet(apiErr.Message)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func firstCandidate(op string, resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return nil, fmt.Errorf("%s: no candidates (block reason %s)", op, resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("%s: no candidates", op)
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return nil, fmt.Errorf("%s: candidate has no content", op)
	}
	return cand, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
