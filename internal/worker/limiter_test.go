package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "llm:gemini"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.WaitURL(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitURL_Invalid(t *testing.T) {
	limiter := NewLimiter(100, 1)

	if err := limiter.WaitURL(context.Background(), "::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
	if err := limiter.WaitURL(context.Background(), "/relative/path"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.WaitURL(ctx, "http://example.com/a"); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Same host shares the bucket regardless of path
	if limiter.Allow("example.com") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("other.com") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	key := "llm:openai"
	if !limiter.Allow(key) {
		t.Fatal("first request should pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, key); err == nil {
		t.Error("expected wait to fail before the next token")
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	key := "llm:ollama"

	limiter.SetRate(key, 0.1, 1)

	if !limiter.Allow(key) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow(key) {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("llm:gemini") {
		t.Errorf("other key should pass")
	}
}

func TestHostKey(t *testing.T) {
	host, err := hostKey("https://www.youtube.com/api/timedtext?v=abc")
	if err != nil {
		t.Fatalf("hostKey failed: %v", err)
	}
	if host != "www.youtube.com" {
		t.Errorf("expected www.youtube.com, got %s", host)
	}
}
