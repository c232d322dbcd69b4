package llm

import (
	"context"
	"errors"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{in: "  ```\nbody\n```  ", want: "body"},
		{in: "```unterminated", want: "```unterminated"},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"claims": []}`, want: `{"claims": []}`},
		{in: "Sure! Here you go: {\"claims\": [\"x\"]} Hope that helps.", want: `{"claims": ["x"]}`},
		{in: "```json\n{\"topic\": \"t\"}\n```", want: `{"topic": "t"}`},
		{in: "no object here", want: "no object here"},
	}
	for _, tt := range tests {
		if got := ExtractJSONObject(tt.in); got != tt.want {
			t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaxTokensFor(t *testing.T) {
	if got := maxTokensFor(CompletionRequest{MaxTokens: 5}, Config{MaxTokens: 10}); got != 5 {
		t.Errorf("request limit should win, got %d", got)
	}
	if got := maxTokensFor(CompletionRequest{}, Config{MaxTokens: 10}); got != 10 {
		t.Errorf("config limit should apply, got %d", got)
	}
	if got := maxTokensFor(CompletionRequest{}, Config{}); got != 1000 {
		t.Errorf("fallback should be 1000, got %d", got)
	}
}

type stubProvider struct {
	calls int
}

func (s *stubProvider) Name() string                         { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }
func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.calls++
	return &CompletionResponse{Text: req.Prompt}, nil
}

type recordingWaiter struct {
	keys []string
	err  error
}

func (w *recordingWaiter) Wait(ctx context.Context, key string) error {
	w.keys = append(w.keys, key)
	return w.err
}

func TestWithLimiter(t *testing.T) {
	stub := &stubProvider{}
	if got := WithLimiter(stub, nil); got != Provider(stub) {
		t.Fatal("nil waiter should return the provider unchanged")
	}

	waiter := &recordingWaiter{}
	limited := WithLimiter(stub, waiter)
	resp, err := limited.Complete(context.Background(), CompletionRequest{Prompt: "echo"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "echo" {
		t.Errorf("Unexpected text %q", resp.Text)
	}
	if len(waiter.keys) != 1 || waiter.keys[0] != "llm:stub" {
		t.Errorf("Unexpected waiter keys %v", waiter.keys)
	}
	if limited.Name() != "stub" {
		t.Errorf("Name should pass through, got %s", limited.Name())
	}
}

func TestWithLimiter_WaitError(t *testing.T) {
	stub := &stubProvider{}
	limited := WithLimiter(stub, &recordingWaiter{err: context.Canceled})

	_, err := limited.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected wrapped context.Canceled, got %v", err)
	}
	if stub.calls != 0 {
		t.Errorf("Provider should not be called when waiting fails, got %d calls", stub.calls)
	}
}
