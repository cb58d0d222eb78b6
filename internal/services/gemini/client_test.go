package gemini

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"github.com/hoangt2/kielo-convo-generator/internal/services/retry"
	"github.com/hoangt2/kielo-convo-generator/internal/textgen"
)

type fakeBackend struct {
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	models    []string
	configs   []generationConfig
}

func (f *fakeBackend) generate(_ context.Context, model string, cfg generationConfig, _ string) (*genai.GenerateContentResponse, error) {
	i := f.calls
	f.calls++
	f.models = append(f.models, model)
	f.configs = append(f.configs, cfg)
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeBackend) close() error { return nil }

func textResponse(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func quickPolicy() Option {
	return WithRetryPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleeper: func(time.Duration) {}})
}

func TestGenerateJSONJoinsTextParts(t *testing.T) {
	fb := &fakeBackend{responses: []*genai.GenerateContentResponse{
		textResponse(genai.Text(`{"ideas":`), genai.Text(`[]}`)),
	}}
	type reply struct {
		Ideas []string `json:"ideas"`
	}
	c := newWithBackend(fb, WithDefaultModel("gemini-2.5-pro"))
	out, err := c.GenerateJSON(context.Background(), textgen.Request{
		Operation:   "ideas",
		System:      "sys",
		Prompt:      "make ideas",
		Schema:      textgen.SchemaFor[reply](),
		Temperature: textgen.Temperature(0.8),
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out != `{"ideas":[]}` {
		t.Fatalf("out = %q", out)
	}
	if fb.models[0] != "gemini-2.5-pro" {
		t.Fatalf("model = %q", fb.models[0])
	}
	cfg := fb.configs[0]
	if cfg.MIMEType != "application/json" || cfg.Schema == nil || cfg.System != "sys" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Schema.Properties["ideas"].Type != genai.TypeArray {
		t.Fatalf("ideas property type = %v", cfg.Schema.Properties["ideas"].Type)
	}
}

func TestGenerateJSONRetriesServerErrors(t *testing.T) {
	fb := &fakeBackend{
		errs:      []error{&googleapi.Error{Code: http.StatusServiceUnavailable, Message: "overloaded"}, nil},
		responses: []*genai.GenerateContentResponse{nil, textResponse(genai.Text(`{}`))},
	}
	c := newWithBackend(fb, WithDefaultModel("m"), quickPolicy())
	if _, err := c.GenerateJSON(context.Background(), textgen.Request{Prompt: "p"}); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if fb.calls != 2 {
		t.Fatalf("calls = %d", fb.calls)
	}
}

func TestGenerateJSONDoesNotRetryBadRequest(t *testing.T) {
	fb := &fakeBackend{
		errs:      []error{&googleapi.Error{Code: http.StatusBadRequest, Message: "bad schema"}},
		responses: []*genai.GenerateContentResponse{nil},
	}
	c := newWithBackend(fb, WithDefaultModel("m"), quickPolicy())
	if _, err := c.GenerateJSON(context.Background(), textgen.Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error")
	}
	if fb.calls != 1 {
		t.Fatalf("calls = %d", fb.calls)
	}
}

func TestGenerateImageReturnsFirstBlob(t *testing.T) {
	fb := &fakeBackend{responses: []*genai.GenerateContentResponse{
		textResponse(genai.Text("here it is"), genai.Blob{MIMEType: "image/png", Data: []byte("png")}),
	}}
	c := newWithBackend(fb)
	data, mime, err := c.GenerateImage(context.Background(), "gemini-2.5-flash-image", "a cafe")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(data) != "png" || mime != "image/png" {
		t.Fatalf("data=%q mime=%q", data, mime)
	}
}

func TestGenerateImageErrors(t *testing.T) {
	cases := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{
			name: "blocked",
			resp: &genai.GenerateContentResponse{PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety}},
			want: "block reason",
		},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: "no candidates"},
		{
			name: "nil content",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			want: "no content",
		},
		{name: "text only", resp: textResponse(genai.Text("sorry")), want: "no image part"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newWithBackend(&fakeBackend{responses: []*genai.GenerateContentResponse{tc.resp}})
			_, _, err := c.GenerateImage(context.Background(), "m", "prompt")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}
