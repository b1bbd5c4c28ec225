package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/zenith/internal/common"
)

func TestConfigValidation(t *testing.T) {
	oauth := func() Config {
		c := DefaultConfig()
		c.ClientID = "client"
		c.ClientSecret = "secret"
		c.RefreshToken = "refresh"
		return c
	}

	tests := []struct {
		wantErr error
		mutate  func(c *Config)
		name    string
	}{
		{name: "oauth with refresh token", mutate: func(*Config) {}},
		{name: "oauth with token file", mutate: func(c *Config) { c.RefreshToken = ""; c.TokenFile = "/tmp/token.json" }},
		{name: "service account", mutate: func(c *Config) { *c = DefaultConfig(); c.ServiceAccountPath = "/tmp/sa.json" }},
		{name: "partial oauth credentials", mutate: func(c *Config) { c.ClientSecret = "" }, wantErr: common.ErrMissingConfig},
		{name: "both methods", mutate: func(c *Config) { c.ServiceAccountPath = "/tmp/sa.json" }, wantErr: common.ErrInvalidConfig},
		{name: "zero batch size", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: common.ErrInvalidConfig},
		{name: "negative retries", mutate: func(c *Config) { c.RetryAttempts = -1 }, wantErr: common.ErrInvalidConfig},
		{name: "negative delay", mutate: func(c *Config) { c.RetryDelay = -time.Second }, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := oauth()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.EnableFormatting)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.Equal(t, "Zenith Export", cfg.SpreadsheetName)
}
