package plaid

import (
	"context"
	"errors"
	"testing"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/common"
)

func validConfig() Config {
	return Config{
		ClientID:    "test-client-id",
		Secret:      "test-secret",
		Environment: "sandbox",
		AccessToken: "test-token",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		mutate  func(c *Config)
		wantErr error
		name    string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing client ID", mutate: func(c *Config) { c.ClientID = "" }, wantErr: common.ErrMissingConfig},
		{name: "missing secret", mutate: func(c *Config) { c.Secret = "" }, wantErr: common.ErrMissingConfig},
		{name: "missing access token", mutate: func(c *Config) { c.AccessToken = "" }, wantErr: common.ErrMissingConfig},
		{name: "missing environment", mutate: func(c *Config) { c.Environment = "" }, wantErr: common.ErrMissingConfig},
		{name: "unknown environment", mutate: func(c *Config) { c.Environment = "development" }, wantErr: common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
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

func TestNewClient(t *testing.T) {
	client, err := NewClient(validConfig())
	require.NoError(t, err)
	assert.NotNil(t, client.client)
	assert.Equal(t, 3, client.retryOpts.MaxAttempts)

	_, err = NewClient(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestNewLinkClientSkipsAccessToken(t *testing.T) {
	cfg := validConfig()
	cfg.AccessToken = ""

	_, err := NewClient(cfg)
	require.ErrorIs(t, err, common.ErrMissingConfig)

	client, err := NewLinkClient(cfg)
	require.NoError(t, err)
	assert.Empty(t, client.accessToken)
}

func TestCleanMerchantName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "basic name", input: "Starbucks", expected: "Starbucks"},
		{name: "lowercase to title case", input: "starbucks coffee", expected: "Starbucks Coffee"},
		{name: "remove LLC suffix", input: "Amazon LLC", expected: "Amazon"},
		{name: "remove stacked suffixes", input: "ACME CO INC", expected: "Acme"},
		{name: "remove transaction ID", input: "UBER TRIP 1234567", expected: "Uber Trip"},
		{name: "short trailing number kept", input: "Shell 123", expected: "Shell 123"},
		{name: "punctuation boundaries", input: "mcdonald's/burger", expected: "Mcdonald'S/Burger"},
		{name: "extra whitespace", input: "  whole   foods  ", expected: "Whole Foods"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanMerchantName(tt.input))
		})
	}
}

func TestMapTransaction(t *testing.T) {
	client, err := NewClient(validConfig())
	require.NoError(t, err)

	build := func(amount float64, date string, pending bool) plaid.Transaction {
		var pt plaid.Transaction
		pt.SetTransactionId("tx-1")
		pt.SetAccountId("acc-1")
		pt.SetName("STARBUCKS STORE 123456789")
		pt.SetAmount(amount)
		pt.SetDate(date)
		pt.SetPending(pending)
		return pt
	}

	ext, ok := client.mapTransaction(build(12.345, "2025-03-01", false))
	require.True(t, ok)
	assert.Equal(t, "tx-1", ext.ID)
	assert.Equal(t, "acc-1", ext.Account)
	assert.Equal(t, "Starbucks Store", ext.Description)
	assert.True(t, ext.Amount.Equal(decimal.RequireFromString("12.35")), ext.Amount.String())
	assert.False(t, ext.Inflow)
	assert.Equal(t, 1, ext.Date.Day())

	refund, ok := client.mapTransaction(build(-20, "2025-03-02", false))
	require.True(t, ok)
	assert.True(t, refund.Inflow)
	assert.True(t, refund.Amount.Equal(decimal.NewFromInt(20)))

	_, ok = client.mapTransaction(build(5, "2025-03-02", true))
	assert.False(t, ok, "pending transactions are skipped")

	_, ok = client.mapTransaction(build(5, "03/02/2025", false))
	assert.False(t, ok, "bad dates are skipped")
}

func TestMockClient(t *testing.T) {
	mock := NewMockClient()
	ctx := context.Background()

	result, err := mock.Sync(ctx, "c0")
	require.NoError(t, err)
	assert.Equal(t, "c0", result.NextCursor)

	mock.SyncFn = func(context.Context, string) (SyncResult, error) {
		return SyncResult{}, errors.New("down")
	}
	_, err = mock.Sync(ctx, "c1")
	assert.Error(t, err)
	assert.Equal(t, []string{"c0", "c1"}, mock.SyncCalls)

	accounts, err := mock.GetAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.Equal(t, 1, mock.GetAccountsCalls)
}
