package whisperapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/services/retry"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kahvila.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribeReturnsSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("language"); got != "fi" {
			t.Fatalf("language = %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Fatalf("response_format = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task":"transcribe","language":"finnish","duration":2.5,"text":"Hei! Moi.","segments":[{"id":0,"start":0.2,"end":1.1,"text":" Hei!"},{"id":1,"start":1.3,"end":2.4,"text":" Moi."}]}`))
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "k", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	segments, err := c.Transcribe(context.Background(), writeAudio(t), "", "Finnish")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 || segments[0].Text != "Hei!" || segments[1].End != 2.4 {
		t.Fatalf("segments = %+v", segments)
	}
}

func TestTranscribeRetriesServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Hei","duration":1,"segments":[]}`))
	}))
	defer server.Close()

	c, err := New(Config{APIKey: "k", BaseURL: server.URL + "/v1"},
		WithRetryPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleeper: func(time.Duration) {}}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	segments, err := c.Transcribe(context.Background(), writeAudio(t), "", "fi")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
	if len(segments) != 1 || segments[0].Text != "Hei" || segments[0].End != 1 {
		t.Fatalf("segments = %+v", segments)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error")
	}
}
