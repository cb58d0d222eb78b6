package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
	"github.com/hoangt2/kielo-convo-generator/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventStageFailed, notifications.Payload{"stage": "audio"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "stage failed",
			event: notifications.EventStageFailed,
			payload: notifications.Payload{
				"stage": "audio",
				"slug":  "kahvilassa",
				"error": errors.New("elevenlabs: http 401"),
			},
			expectTitle:    "Kielo - Stage Failed",
			expectMessage:  "❌ audio (kahvilassa) failed: elevenlabs: http 401",
			expectTags:     "kielo,audio,error",
			expectPriority: "high",
		},
		{
			name:  "stage completed",
			event: notifications.EventStageCompleted,
			payload: notifications.Payload{
				"stage":     "video",
				"processed": 2,
				"skipped":   1,
				"failed":    0,
				"duration":  61500 * time.Millisecond,
			},
			expectTitle:   "Kielo - Stage Complete",
			expectMessage: "video complete: 2 processed, 1 skipped, 0 failed in 1m2s",
			expectTags:    "kielo,video,completed",
		},
		{
			name:  "run completed with errors",
			event: notifications.EventRunCompleted,
			payload: notifications.Payload{
				"mode":   "podcast",
				"stages": 7,
				"failed": 1,
			},
			expectTitle:    "Kielo - Pipeline Complete (with errors)",
			expectMessage:  "✅ Pipeline finished podcast mode: 7 stages",
			expectTags:     "kielo,pipeline,completed",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				if r.URL.Path != "/kielo-test" {
					t.Fatalf("unexpected path: %s", r.URL.Path)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyServer = server.URL
			cfg.Notifications.NtfyTopic = "kielo-test"
			cfg.Notifications.StageComplete = true
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestDisabledEventIsSkipped(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/topic"
	cfg.Notifications.StageComplete = false
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventStageCompleted, notifications.Payload{"stage": "mix"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if called {
		t.Fatal("disabled event should not be sent")
	}
}

func TestServerErrorIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("forbidden"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL + "/topic"
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error from 403")
	}
}
