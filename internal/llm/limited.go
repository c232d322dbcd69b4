package llm

import (
	"context"
	"fmt"
)

// Waiter blocks until a request for key may proceed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// LimitedProvider throttles another provider through a Waiter keyed by provider name
type LimitedProvider struct {
	Provider
	waiter Waiter
}

// WithLimiter wraps p so every completion first waits on w.
// A nil waiter returns p unchanged.
func WithLimiter(p Provider, w Waiter) Provider {
	if w == nil {
		return p
	}
	return &LimitedProvider{Provider: p, waiter: w}
}

// Complete waits for clearance and then delegates
func (l *LimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := l.waiter.Wait(ctx, "llm:"+l.Name()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.Provider.Complete(ctx, req)
}
