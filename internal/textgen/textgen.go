// Package textgen defines the structured text generation contract shared by
// the idea, script and translation steps, plus the helpers that turn Go types
// into response schemas and decode model output.
package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// Request is one JSON-producing generation call.
type Request struct {
	// Operation names the call in logs and errors ("ideas", "script", ...).
	Operation   string
	Model       string
	System      string
	Prompt      string
	Schema      *jsonschema.Schema
	Temperature *float32
}

// Generator returns the raw JSON payload produced for a request.
type Generator interface {
	GenerateJSON(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// GenerateJSON calls f.
func (f GeneratorFunc) GenerateJSON(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(v float64) *float32 {
	t := float32(v)
	return &t
}

// SchemaFor reflects the response schema for T. References are inlined so the
// result can be converted for providers that reject $ref.
func SchemaFor[T any]() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	var v T
	return r.Reflect(v)
}

// SchemaJSON renders a schema for inclusion in a prompt.
func SchemaJSON(s *jsonschema.Schema) string {
	if s == nil {
		return ""
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// Generate runs the request and decodes the payload into T.
func Generate[T any](ctx context.Context, gen Generator, req Request) (T, string, error) {
	var out T
	if gen == nil {
		return out, "", errors.New("text generator not configured")
	}
	raw, err := gen.GenerateJSON(ctx, req)
	if err != nil {
		return out, "", err
	}
	if err := Decode(raw, &out); err != nil {
		op := req.Operation
		if op == "" {
			op = "generate"
		}
		return out, raw, fmt.Errorf("%s: parse payload: %w", op, err)
	}
	return out, raw, nil
}

// Decode unmarshals model output, tolerating code fences and leading prose.
func Decode(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}
	sanitized := sanitize(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, Snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, Snippet(sanitized))
	}
	return nil
}

func sanitize(content string) string {
	trimmed := strings.TrimSpace(stripCodeFence(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// Snippet collapses whitespace and truncates content for error messages.
func Snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
