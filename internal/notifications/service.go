package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/config"
)

const userAgent = "kielo/0.1.0"

// Event identifies a notification kind.
type Event string

const (
	EventStageFailed    Event = "stage_failed"
	EventStageCompleted Event = "stage_completed"
	EventRunCompleted   Event = "run_completed"
	EventTest           Event = "test"
)

// Payload carries event fields. Known keys: stage, slug, mode, error,
// processed, skipped, failed, duration, stages.
type Payload map[string]any

// Service publishes pipeline events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	n := cfg.Notifications
	topic := strings.TrimSpace(n.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	endpoint := topic
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		endpoint = strings.TrimRight(n.NtfyServer, "/") + "/" + strings.TrimLeft(topic, "/")
	}
	timeout := time.Duration(n.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventStageFailed:    n.StageFailures,
			EventStageCompleted: n.StageComplete,
			EventRunCompleted:   n.RunComplete,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("unknown notification event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	stage := payload.text("stage")
	switch event {
	case EventStageFailed:
		subject := stage
		if slug := payload.text("slug"); slug != "" {
			subject = fmt.Sprintf("%s (%s)", stage, slug)
		}
		return message{
			title:    "Kielo - Stage Failed",
			body:     fmt.Sprintf("❌ %s failed: %s", subject, fallback(payload.text("error"), "unknown error")),
			tags:     []string{"kielo", stage, "error"},
			priority: "high",
		}, true
	case EventStageCompleted:
		body := fmt.Sprintf("%s complete: %s processed, %s skipped, %s failed",
			stage, fallback(payload.text("processed"), "0"), fallback(payload.text("skipped"), "0"), fallback(payload.text("failed"), "0"))
		if d := payload.text("duration"); d != "" {
			body += " in " + d
		}
		return message{
			title: "Kielo - Stage Complete",
			body:  body,
			tags:  []string{"kielo", stage, "completed"},
		}, true
	case EventRunCompleted:
		failed := payload.text("failed")
		title := "Kielo - Pipeline Complete"
		priority := ""
		if failed != "" && failed != "0" {
			title = "Kielo - Pipeline Complete (with errors)"
			priority = "high"
		}
		body := fmt.Sprintf("✅ Pipeline finished %s mode: %s stages", fallback(payload.text("mode"), "conversation"), fallback(payload.text("stages"), "0"))
		if d := payload.text("duration"); d != "" {
			body += " in " + d
		}
		return message{title: title, body: body, tags: []string{"kielo", "pipeline", "completed"}, priority: priority}, true
	case EventTest:
		return message{
			title:    "Kielo - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"kielo", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (p Payload) text(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case time.Duration:
		return t.Round(time.Second).String()
	case error:
		return strings.TrimSpace(t.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
