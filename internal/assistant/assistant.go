// Package assistant turns ledger data into prompts for a hosted model and
// decodes the replies into typed results. Every failure is an *Error.
package assistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Veraticus/zenith/internal/llm"
	"github.com/Veraticus/zenith/internal/metrics"
)

// Assistant is the AI facade. It is safe for concurrent use if its client is.
type Assistant struct {
	client llm.Client
	logger *slog.Logger
	clock  func() time.Time
	policy metrics.HealthPolicy
	model  string
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithClock sets the time source used for "today" in prompts.
func WithClock(clock func() time.Time) Option {
	return func(a *Assistant) { a.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) { a.logger = logger }
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(a *Assistant) { a.model = model }
}

// WithHealthPolicy sets the policy used when the dashboard scores health.
func WithHealthPolicy(p metrics.HealthPolicy) Option {
	return func(a *Assistant) { a.policy = p }
}

// New creates an assistant over client.
func New(client llm.Client, opts ...Option) *Assistant {
	a := &Assistant{
		client: client,
		logger: slog.Default().With("component", "assistant"),
		clock:  time.Now,
		policy: metrics.DefaultHealthPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assistant) now() time.Time {
	return a.clock()
}

// generate sends req and classifies any failure.
func (a *Assistant) generate(ctx context.Context, op string, req llm.Request) (llm.Response, error) {
	if req.Model == "" {
		req.Model = a.model
	}
	start := time.Now()
	resp, err := a.client.Generate(ctx, req)
	if err != nil {
		a.logger.Error("AI request failed", "op", op, "error", err)
		return llm.Response{}, callError(op, err)
	}
	a.logger.Debug("AI request complete", "op", op, "duration", time.Since(start), "chars", len(resp.Text))
	return resp, nil
}

// structured sends a schema-constrained request and decodes the reply.
func structured[T any](ctx context.Context, a *Assistant, op string, req llm.Request) (T, error) {
	var zero T
	resp, err := a.generate(ctx, op, req)
	if err != nil {
		return zero, err
	}
	out, err := decodeStrict[T](op, resp.Text)
	if err != nil {
		a.logger.Warn("AI returned unusable JSON", "op", op, "error", err, "response", truncate(resp.Text, 200))
		return zero, err
	}
	return out, nil
}

// compact renders v as JSON for embedding in a prompt.
func compact(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
