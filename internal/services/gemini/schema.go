package gemini

import (
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/invopop/jsonschema"
)

// ConvertSchema maps a reflected JSON schema onto the OpenAPI subset Gemini
// accepts. References must already be inlined.
func ConvertSchema(s *jsonschema.Schema) (*genai.Schema, error) {
	if s == nil {
		return nil, nil
	}
	if s.Ref != "" {
		return nil, fmt.Errorf("schema reference %q not supported", s.Ref)
	}
	out := &genai.Schema{Description: s.Description}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
		if s.Properties != nil {
			out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
			for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
				prop, err := ConvertSchema(pair.Value)
				if err != nil {
					return nil, fmt.Errorf("property %s: %w", pair.Key, err)
				}
				out.Properties[pair.Key] = prop
			}
		}
		out.Required = append(out.Required, s.Required...)
	case "array":
		out.Type = genai.TypeArray
		items, err := ConvertSchema(s.Items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = items
	case "string":
		out.Type = genai.TypeString
		for _, e := range s.Enum {
			out.Enum = append(out.Enum, fmt.Sprint(e))
		}
		if len(out.Enum) > 0 {
			out.Format = "enum"
		}
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", s.Type)
	}
	return out, nil
}
