package llm

import (
	"net/http"
	"time"
)

// Config holds the settings for creating a client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// newHTTPClient builds the pooled HTTP client shared by the providers.
func newHTTPClient(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
