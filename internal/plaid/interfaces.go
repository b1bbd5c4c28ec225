package plaid

import (
	"context"
)

// Fetcher is the part of Plaid the importer needs.
type Fetcher interface {
	Sync(ctx context.Context, cursor string) (SyncResult, error)
	GetAccounts(ctx context.Context) ([]Account, error)
}
