// Package plaid pulls bank transactions from the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/service"
)

// Source names Plaid in import bookkeeping.
const Source = "plaid"

const syncPageSize = int32(500)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	// BaseURL overrides the environment's API host.
	BaseURL string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if err := c.validateCredentials(); err != nil {
		return err
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	return nil
}

func (c *Config) validateCredentials() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	switch c.Environment {
	case "sandbox", "production":
		return nil
	case "":
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}
	return fmt.Errorf("%w: plaid environment must be sandbox or production", common.ErrInvalidConfig)
}

// Account is a bank account visible through the access token.
type Account struct {
	ID      string
	Name    string
	Type    string
	Balance decimal.Decimal
}

// SyncResult is one complete pass over the transactions sync endpoint.
type SyncResult struct {
	NextCursor   string
	Transactions []service.ExternalTransaction
	Removed      int
}

// Client implements Fetcher against the Plaid API.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   service.RetryOptions
	accessToken string
}

// NewClient creates a Plaid client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newClient(cfg), nil
}

// NewLinkClient creates a client for linking a new item, before an access
// token exists. Only CreateLinkToken and ExchangePublicToken work on it.
func NewLinkClient(cfg Config) (*Client, error) {
	if err := cfg.validateCredentials(); err != nil {
		return nil, err
	}
	return newClient(cfg), nil
}

func newClient(cfg Config) *Client {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}
	if cfg.BaseURL != "" {
		configuration.Servers = plaid.ServerConfigurations{{URL: cfg.BaseURL}}
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// apiError classifies a Plaid failure; rate limits are retryable.
func (c *Client) apiError(op string, err error) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrPlaidConnection, op, err)
	}
	if plaidErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
		c.logger.Warn("Rate limit hit, will retry", "error", plaidErr.ErrorMessage)
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidErr.ErrorMessage), Retryable: true}
	}
	return fmt.Errorf("plaid API error: %s - %s", plaidErr.ErrorCode, plaidErr.ErrorMessage)
}

// Sync pages through every change since cursor. An empty cursor starts
// from the beginning of the item's history.
func (c *Client) Sync(ctx context.Context, cursor string) (SyncResult, error) {
	result := SyncResult{NextCursor: cursor}

	for {
		var page plaid.TransactionsSyncResponse
		err := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsSyncRequest(c.accessToken)
			if result.NextCursor != "" {
				request.SetCursor(result.NextCursor)
			}
			request.SetCount(syncPageSize)

			resp, _, err := c.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*request).Execute()
			if err != nil {
				return c.apiError("transactions sync", err)
			}
			page = resp
			return nil
		}, c.retryOpts)
		if err != nil {
			return SyncResult{}, err
		}

		for _, pt := range page.GetAdded() {
			ext, ok := c.mapTransaction(pt)
			if ok {
				result.Transactions = append(result.Transactions, ext)
			}
		}
		result.Removed += len(page.GetRemoved())
		result.NextCursor = page.GetNextCursor()

		c.logger.Debug("Fetched sync page",
			"added", len(page.GetAdded()),
			"modified", len(page.GetModified()),
			"removed", len(page.GetRemoved()))

		if !page.GetHasMore() {
			break
		}
	}

	c.logger.Info("Plaid sync complete", "transactions", len(result.Transactions), "removed", result.Removed)
	return result, nil
}

// GetAccounts lists the accounts behind the access token.
func (c *Client) GetAccounts(ctx context.Context) ([]Account, error) {
	var accounts []plaid.AccountBase
	err := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			return c.apiError("accounts", err)
		}
		accounts = resp.GetAccounts()
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		balances := a.GetBalances()
		out = append(out, Account{
			ID:      a.GetAccountId(),
			Name:    a.GetName(),
			Type:    string(a.GetType()),
			Balance: decimal.NewFromFloat(balances.GetCurrent()).Round(2),
		})
	}
	return out, nil
}

// CreateLinkToken creates a token for initializing Plaid Link.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	request := plaid.NewLinkTokenCreateRequest(
		"Zenith",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		plaid.LinkTokenCreateRequestUser{ClientUserId: userID},
	)
	request.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := c.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*request).Execute()
	if err != nil {
		return "", c.apiError("link token", err)
	}
	return resp.GetLinkToken(), nil
}

// ExchangePublicToken swaps a Link public token for an access token and
// item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	request := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := c.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*request).Execute()
	if err != nil {
		return "", "", c.apiError("token exchange", err)
	}
	return resp.GetAccessToken(), resp.GetItemId(), nil
}

// mapTransaction converts a Plaid transaction. Plaid signs money leaving
// the account positive. Pending and zero-amount transactions are skipped.
func (c *Client) mapTransaction(pt plaid.Transaction) (service.ExternalTransaction, bool) {
	if pt.GetPending() || pt.GetAmount() == 0 {
		return service.ExternalTransaction{}, false
	}
	date, err := model.ParseDate(pt.GetDate())
	if err != nil {
		c.logger.Warn("Skipping transaction with bad date", "id", pt.GetTransactionId(), "date", pt.GetDate())
		return service.ExternalTransaction{}, false
	}

	name := pt.GetMerchantName()
	if name == "" {
		name = pt.GetName()
	}
	amount := decimal.NewFromFloat(pt.GetAmount()).Round(2)

	return service.ExternalTransaction{
		ID:          pt.GetTransactionId(),
		Date:        date,
		Account:     pt.GetAccountId(),
		Description: cleanMerchantName(name),
		Amount:      amount.Abs(),
		Inflow:      amount.IsNegative(),
	}, true
}

var corporateSuffixes = []string{" Llc", " Inc", " Corp", " Corporation", " Company", " Co", " Ltd", " Limited"}

// cleanMerchantName title-cases a name, drops a trailing reference number
// and strips corporate suffixes.
func cleanMerchantName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		runes := []rune(word)
		for j := range runes {
			if j == 0 || !isLetter(runes[j-1]) {
				runes[j] = toUpper(runes[j])
			}
		}
		words[i] = string(runes)
	}

	if n := len(words); n > 1 && len(words[n-1]) > 5 && isAllDigits(words[n-1]) {
		words = words[:n-1]
	}
	name = strings.Join(words, " ")

	for changed := true; changed; {
		changed = false
		for _, suffix := range corporateSuffixes {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				changed = true
			}
		}
	}
	return strings.TrimSpace(name)
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

var _ Fetcher = (*Client)(nil)
