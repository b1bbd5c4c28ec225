package importer

import (
	"context"

	"github.com/Veraticus/zenith/internal/plaid"
	"github.com/Veraticus/zenith/internal/service"
	"github.com/Veraticus/zenith/internal/workspace"
)

// SyncPlaid pulls everything new since the stored cursor and imports it
// into accountID. When plaidAccount is set only that Plaid account's
// transactions are kept. The cursor advances only after a committed import.
func (i *Importer) SyncPlaid(ctx context.Context, w *workspace.Workspace, f plaid.Fetcher, accountID, plaidAccount string, dryRun bool) (Result, error) {
	userID := w.User().Email
	cursor, err := i.store.GetSyncCursor(ctx, userID, plaid.Source)
	if err != nil {
		return Result{}, err
	}

	synced, err := f.Sync(ctx, cursor)
	if err != nil {
		return Result{}, err
	}

	txns := make([]service.ExternalTransaction, 0, len(synced.Transactions))
	for _, ext := range synced.Transactions {
		if plaidAccount == "" || ext.Account == plaidAccount {
			txns = append(txns, ext)
		}
	}

	result, err := i.Import(ctx, w, Request{
		Source:       plaid.Source,
		AccountID:    accountID,
		Transactions: txns,
		DryRun:       dryRun,
	})
	if err != nil || dryRun {
		return result, err
	}
	if err := i.store.SaveSyncCursor(ctx, userID, plaid.Source, synced.NextCursor); err != nil {
		return result, err
	}
	return result, nil
}
