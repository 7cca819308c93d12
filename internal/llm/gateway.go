package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// Completion is a single free-text prompt sent through the Gateway.
type Completion struct {
	// Purpose labels the call for event logging and metrics.
	Purpose     string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int

	// Timeout bounds this call. Zero falls back to the gateway default.
	Timeout time.Duration
}

// Observer receives the outcome of each gateway call.
type Observer interface {
	ObserveCompletion(purpose string, elapsed time.Duration, err error)
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithMaxConcurrency caps the number of in-flight calls. n <= 0 disables
// the limit.
func WithMaxConcurrency(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithDefaultTimeout sets the timeout used when a Completion has none.
func WithDefaultTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.timeout = d }
}

// WithObserver registers an Observer for call outcomes.
func WithObserver(o Observer) GatewayOption {
	return func(g *Gateway) { g.observer = o }
}

// Gateway is the single entry point for free-text LLM calls. It applies a
// per-call deadline and a process-wide concurrency limit on top of a
// Provider; vendor selection and retries live in the Provider chain.
type Gateway struct {
	provider Provider
	sem      *semaphore.Weighted
	timeout  time.Duration
	observer Observer
}

// NewGateway wraps p.
func NewGateway(p Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{provider: p}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGatewayFromConfig wraps p using the timeout and concurrency from cfg.
func NewGatewayFromConfig(p Provider, cfg Config, opts ...GatewayOption) *Gateway {
	base := []GatewayOption{
		WithDefaultTimeout(cfg.Timeout),
		WithMaxConcurrency(cfg.MaxConcurrency),
	}
	return NewGateway(p, append(base, opts...)...)
}

// ModelID returns the model of the underlying provider.
func (g *Gateway) ModelID() string {
	return g.provider.ModelID()
}

// Complete sends one prompt and returns the model's raw text. The text is
// not parsed or validated. When the model stopped at MaxTokens the partial
// text is returned together with an *ErrMaxTokensExceeded so callers can
// decide whether a cut-off reply is still usable.
func (g *Gateway) Complete(ctx context.Context, c Completion) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = g.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if c.Purpose != "" {
		ctx = WithPurpose(ctx, c.Purpose)
	}

	start := time.Now()
	text, err := g.complete(ctx, c)
	if g.observer != nil {
		g.observer.ObserveCompletion(PurposeFrom(ctx), time.Since(start), err)
	}
	return text, err
}

func (g *Gateway) complete(ctx context.Context, c Completion) (string, error) {
	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("wait for LLM slot: %w", err)
		}
		defer g.sem.Release(1)
	}

	resp, err := g.provider.Generate(ctx, Request{
		System:      c.System,
		Messages:    []Message{{Role: RoleUser, Content: c.Prompt}},
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}
	if resp.Truncated() {
		return resp.Text, &ErrMaxTokensExceeded{Text: resp.Text, MaxTokens: c.MaxTokens}
	}
	return resp.Text, nil
}
