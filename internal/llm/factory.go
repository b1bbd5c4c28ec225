package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewClient creates a client for cfg.Provider, wrapped with rate limiting
// and, when CacheTTL is positive, a response cache.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini", "google":
		client, err = newGeminiClient(ctx, cfg)
	case "openai":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheTTL > 0 {
		client = WithCache(client, cfg.CacheTTL)
	}
	if cfg.RateLimit > 0 {
		client = WithRateLimit(client, cfg.RateLimit)
	}
	return client, nil
}
