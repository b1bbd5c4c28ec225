package importer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/importer"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/plaid"
	"github.com/Veraticus/zenith/internal/service"
	"github.com/Veraticus/zenith/internal/testutil"
	"github.com/Veraticus/zenith/internal/workspace"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type stubCategorizer struct {
	err     error
	byDesc  map[string]string
	queried []string
}

func (s *stubCategorizer) SuggestCategory(_ context.Context, description string, _ []model.Category) (string, error) {
	s.queried = append(s.queried, description)
	if s.err != nil {
		return "", s.err
	}
	return s.byDesc[description], nil
}

type countingProgress struct{ n int }

func (c *countingProgress) Add(n int) error {
	c.n += n
	return nil
}

func setup(t *testing.T) (*testutil.TestDB, *workspace.Workspace, string) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fixture := testutil.NewLedgerBuilder(t, now).WithAccount("Checking", model.AccountChecking, "1000")
	db.SeedUser("a@example.com", fixture.Build())

	w, err := workspace.Open(context.Background(), db.Storage, "a@example.com",
		workspace.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return db, w, fixture.AccountID("Checking")
}

func external() []service.ExternalTransaction {
	return []service.ExternalTransaction{
		{ID: "fit-1", Date: now.AddDate(0, 0, -2), Description: "Grocer", Amount: decimal.RequireFromString("40.25")},
		{ID: "fit-2", Date: now.AddDate(0, 0, -1), Description: "Payroll", Amount: decimal.NewFromInt(900), Inflow: true},
		{ID: "fit-1", Date: now.AddDate(0, 0, -2), Description: "Grocer", Amount: decimal.RequireFromString("40.25")},
	}
}

func TestImport(t *testing.T) {
	db, w, acct := setup(t)
	ctx := context.Background()
	cat := &stubCategorizer{byDesc: map[string]string{"Grocer": "cat-1"}}
	progress := &countingProgress{}
	imp := importer.New(db.Storage, importer.WithCategorizer(cat), importer.WithProgress(progress))

	result, err := imp.Import(ctx, w, importer.Request{Source: "ofx", AccountID: acct, Transactions: external()})
	require.NoError(t, err)
	require.Len(t, result.Added, 2)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Categorized)
	assert.Equal(t, 2, progress.n)
	// Income is never sent for categorization.
	assert.Equal(t, []string{"Grocer"}, cat.queried)

	for _, txn := range result.Added {
		assert.Regexp(t, `^sync-`, txn.ID)
	}

	got, _ := w.State().Account(acct)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("1859.75")), got.Balance.String())

	// A second run imports nothing.
	result, err = imp.Import(ctx, w, importer.Request{Source: "ofx", AccountID: acct, Transactions: external()})
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Equal(t, 3, result.Skipped)

	got, _ = w.State().Account(acct)
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("1859.75")))
}

func TestImportDryRun(t *testing.T) {
	db, w, acct := setup(t)
	imp := importer.New(db.Storage)

	result, err := imp.Import(context.Background(), w, importer.Request{
		Source: "ofx", AccountID: acct, Transactions: external(), DryRun: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Added, 2)
	assert.Equal(t, model.CategoryOtherID, result.Added[0].CategoryID)
	assert.Equal(t, model.TransactionIncome, result.Added[1].Type)

	got, _ := w.State().Account(acct)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(1000)))

	fresh, err := db.Storage.FilterImported(context.Background(), "a@example.com", "ofx", []string{"fit-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fit-1"}, fresh)
}

func TestImportCategorizerFailureKeepsDefault(t *testing.T) {
	db, w, acct := setup(t)
	imp := importer.New(db.Storage, importer.WithCategorizer(&stubCategorizer{err: errors.New("offline")}))

	result, err := imp.Import(context.Background(), w, importer.Request{Source: "ofx", AccountID: acct, Transactions: external()})
	require.NoError(t, err)
	assert.Zero(t, result.Categorized)
	assert.Equal(t, model.CategoryOtherID, result.Added[0].CategoryID)
}

func TestImportUnknownAccount(t *testing.T) {
	db, w, _ := setup(t)
	imp := importer.New(db.Storage)

	_, err := imp.Import(context.Background(), w, importer.Request{Source: "ofx", AccountID: "nope"})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestSyncPlaid(t *testing.T) {
	db, w, acct := setup(t)
	ctx := context.Background()
	imp := importer.New(db.Storage)

	mock := plaid.NewMockClient()
	mock.SyncFn = func(_ context.Context, cursor string) (plaid.SyncResult, error) {
		if cursor != "" {
			return plaid.SyncResult{NextCursor: cursor}, nil
		}
		txns := external()
		txns[1].Account = "other"
		return plaid.SyncResult{NextCursor: "c1", Transactions: txns}, nil
	}

	result, err := imp.SyncPlaid(ctx, w, mock, acct, "", true)
	require.NoError(t, err)
	assert.Len(t, result.Added, 2)
	cursor, err := db.Storage.GetSyncCursor(ctx, "a@example.com", plaid.Source)
	require.NoError(t, err)
	assert.Empty(t, cursor, "dry runs leave the cursor alone")

	result, err = imp.SyncPlaid(ctx, w, mock, acct, "", false)
	require.NoError(t, err)
	assert.Len(t, result.Added, 2)

	cursor, err = db.Storage.GetSyncCursor(ctx, "a@example.com", plaid.Source)
	require.NoError(t, err)
	assert.Equal(t, "c1", cursor)

	result, err = imp.SyncPlaid(ctx, w, mock, acct, "", false)
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.Equal(t, []string{"", "", "c1"}, mock.SyncCalls)
}

func TestSyncPlaidAccountFilter(t *testing.T) {
	db, w, acct := setup(t)
	mock := plaid.NewMockClient()
	mock.SyncFn = func(context.Context, string) (plaid.SyncResult, error) {
		txns := external()
		txns[0].Account = "checking"
		txns[1].Account = "savings"
		txns[2].Account = "checking"
		return plaid.SyncResult{NextCursor: "c1", Transactions: txns}, nil
	}

	result, err := importer.New(db.Storage).SyncPlaid(context.Background(), w, mock, acct, "savings", false)
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	assert.Equal(t, "Payroll", result.Added[0].Description)
}
