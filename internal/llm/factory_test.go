package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
		check   func(t *testing.T, c Client)
	}{
		{
			name: "openai",
			cfg:  Config{Provider: "OpenAI", APIKey: "k"},
			check: func(t *testing.T, c Client) {
				assert.IsType(t, &openAIClient{}, c)
			},
		},
		{
			name: "anthropic",
			cfg:  Config{Provider: "anthropic", APIKey: "k"},
			check: func(t *testing.T, c Client) {
				assert.IsType(t, &anthropicClient{}, c)
			},
		},
		{
			name: "gemini by default",
			cfg:  Config{APIKey: "k"},
			check: func(t *testing.T, c Client) {
				assert.IsType(t, &geminiClient{}, c)
			},
		},
		{
			name: "wrapped with cache and limiter",
			cfg:  Config{Provider: "openai", APIKey: "k", CacheTTL: time.Minute, RateLimit: 30},
			check: func(t *testing.T, c Client) {
				limited, ok := c.(*limitedClient)
				require.True(t, ok)
				assert.IsType(t, &cachedClient{}, limited.next)
			},
		},
		{
			name:    "missing key",
			cfg:     Config{Provider: "openai"},
			wantErr: "API key is required",
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "llama", APIKey: "k"},
			wantErr: "unsupported LLM provider: llama",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { _ = client.Close() }()
			tt.check(t, client)
		})
	}
}
