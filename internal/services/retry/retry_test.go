package retry_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/hoangt2/kielo-convo-generator/internal/services/retry"
)

func TestDoRetriesTransientStatus(t *testing.T) {
	var sleeps []time.Duration
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second, Sleeper: func(d time.Duration) {
		sleeps = append(sleeps, d)
	}}
	calls := 0
	err := policy.Do(context.Background(), "op", func(int) error {
		calls++
		if calls < 3 {
			return &retry.StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != 2*time.Second {
		t.Fatalf("unexpected sleeps %v", sleeps)
	}
}

func TestDoStopsOnClientError(t *testing.T) {
	calls := 0
	err := retry.Policy{MaxAttempts: 5, Sleeper: func(time.Duration) {}}.Do(context.Background(), "op", func(int) error {
		calls++
		return &retry.StatusError{StatusCode: http.StatusUnauthorized, Body: "bad key"}
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected single failing call, got calls=%d err=%v", calls, err)
	}
}

func TestDoHonorsRetryAfter(t *testing.T) {
	var slept time.Duration
	policy := retry.Policy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 5 * time.Second, Sleeper: func(d time.Duration) { slept = d }}
	_ = policy.Do(context.Background(), "op", func(attempt int) error {
		if attempt == 1 {
			return &retry.StatusError{StatusCode: http.StatusTooManyRequests, RetryAfter: 30 * time.Second}
		}
		return nil
	})
	if slept != 5*time.Second {
		t.Fatalf("expected Retry-After capped at max delay, got %s", slept)
	}
}

func TestDoReportsExhaustion(t *testing.T) {
	err := retry.Policy{MaxAttempts: 2, Sleeper: func(time.Duration) {}}.Do(context.Background(), "tts", func(int) error {
		return retry.Retryable(errors.New("empty body"))
	})
	if err == nil || !strings.Contains(err.Error(), "failed after 2 attempts") {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := retry.Default().Do(ctx, "op", func(int) error {
		calls++
		return &retry.StatusError{StatusCode: http.StatusBadGateway}
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected cancellation to stop retries, calls=%d err=%v", calls, err)
	}
}

func TestBackoffCaps(t *testing.T) {
	p := retry.Default()
	if got := p.Backoff(1); got != time.Second {
		t.Fatalf("attempt 1 = %s", got)
	}
	if got := p.Backoff(3); got != 4*time.Second {
		t.Fatalf("attempt 3 = %s", got)
	}
	if got := p.Backoff(10); got != 10*time.Second {
		t.Fatalf("attempt 10 = %s", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := retry.ParseRetryAfter("7"); !ok || d != 7*time.Second {
		t.Fatalf("seconds form: %v %v", d, ok)
	}
	if _, ok := retry.ParseRetryAfter("-1"); ok {
		t.Fatal("negative should be rejected")
	}
	if _, ok := retry.ParseRetryAfter("garbage"); ok {
		t.Fatal("garbage should be rejected")
	}
}
