package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/storage"
	"github.com/Veraticus/zenith/internal/testutil"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "zenith.db")
		store, err := storage.NewSQLiteStorage(path)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Migrate(context.Background()))
		assert.Equal(t, path, store.Path())
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := storage.NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, storage.ErrEmptyString)
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zenith.db")
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Close())

	store, err = storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.NoError(t, store.Migrate(ctx))
}

func TestStateRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	state := testutil.NewLedgerBuilder(t, testNow).
		WithAccount("Checking", model.AccountChecking, "1000").
		WithAccount("Visa", model.AccountCreditCard, "250").
		WithTransaction("Checking", model.TransactionExpense, "cat-1", "42.50", testNow).
		WithBudget("cat-1", "400").
		Build()

	require.NoError(t, db.Storage.SaveState(ctx, "a@example.com", state))

	loaded, found, err := db.Storage.LoadState(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, found)

	require.Len(t, loaded.Accounts, 2)
	assert.Len(t, loaded.Transactions, len(state.Transactions))
	assert.Len(t, loaded.Budgets, 1)
	assert.Equal(t, state.Categories, loaded.Categories)
	for i := range state.Accounts {
		assert.True(t, state.Accounts[i].Balance.Equal(loaded.Accounts[i].Balance))
	}

	drift, err := loaded.Drift()
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestLoadStateMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)

	state, found, err := db.Storage.LoadState(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, state)
}

func TestSaveStateWritesEmptyCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Storage.SaveState(ctx, "a@example.com", &ledger.State{}))

	loaded, found, err := db.Storage.LoadState(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, loaded.Accounts)
}

func TestStateIsolatedPerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	state := testutil.NewLedgerBuilder(t, testNow).
		WithAccount("Checking", model.AccountChecking, "10").
		Build()
	require.NoError(t, db.Storage.SaveState(ctx, "a@example.com", state))
	require.NoError(t, db.Storage.SaveState(ctx, "b@example.com", ledger.DefaultState()))

	b, _, err := db.Storage.LoadState(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Empty(t, b.Accounts)

	require.NoError(t, db.Storage.DeleteState(ctx, "a@example.com"))
	_, found, err := db.Storage.LoadState(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = db.Storage.LoadState(ctx, "b@example.com")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCollectionKey(t *testing.T) {
	assert.Equal(t, "zenith_recurring_transactions_a@example.com",
		storage.CollectionKey(storage.CollectionRecurring, "a@example.com"))
}

func TestUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	user, err := db.Storage.CreateUser(ctx, " Alice@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, model.PlanFree, user.Plan)

	_, err = db.Storage.CreateUser(ctx, "alice@example.com")
	assert.ErrorIs(t, err, storage.ErrUserExists)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	_, err = db.Storage.CreateUser(ctx, "not-an-email")
	assert.ErrorIs(t, err, storage.ErrInvalidEmail)

	require.NoError(t, db.Storage.UpdateUserPlan(ctx, "alice@example.com", model.PlanPremium))
	got, err := db.Storage.GetUser(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.True(t, got.IsPremium())

	err = db.Storage.UpdateUserPlan(ctx, "bob@example.com", model.PlanPremium)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Error(t, db.Storage.UpdateUserPlan(ctx, "alice@example.com", model.Plan("gold")))

	users, err := db.Storage.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].ID)
}

func TestSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	_, err := db.Storage.CurrentUser(ctx)
	assert.ErrorIs(t, err, common.ErrNoSession)

	assert.ErrorIs(t, db.Storage.SetCurrentUser(ctx, "ghost@example.com"), storage.ErrUserNotFound)

	db.SeedUser("a@example.com", nil)
	email, err := db.Storage.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)

	require.NoError(t, db.Storage.ClearCurrentUser(ctx))
	_, err = db.Storage.CurrentUser(ctx)
	assert.ErrorIs(t, err, storage.ErrNoSession)
}

func TestNotifications(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	older := model.Notification{
		ID: "n1", Type: model.NotificationBudget, Message: "over budget",
		RelatedID: "b1", Date: testNow.Add(-time.Hour),
	}
	newer := model.Notification{
		ID: "n2", Type: model.NotificationBill, Message: "bill due",
		RelatedID: "bill-1", Date: testNow, IsRead: true,
	}
	require.NoError(t, db.Storage.SaveNotifications(ctx, "a@example.com", []model.Notification{older, newer}))

	got, err := db.Storage.LoadNotifications(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n2", got[0].ID)
	assert.True(t, got[0].IsRead)
	assert.Equal(t, model.NotificationBudget, got[1].Type)
	assert.Equal(t, "b1", got[1].RelatedID)

	require.NoError(t, db.Storage.SaveNotifications(ctx, "a@example.com", []model.Notification{older}))
	got, err = db.Storage.LoadNotifications(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	other, err := db.Storage.LoadNotifications(ctx, "b@example.com")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestImportBookkeeping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	fresh, err := db.Storage.FilterImported(ctx, "a@example.com", "ofx", []string{"t1", "t2", "t1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, fresh)

	require.NoError(t, db.Storage.MarkImported(ctx, "a@example.com", "ofx", []string{"t1"}))
	fresh, err = db.Storage.FilterImported(ctx, "a@example.com", "ofx", []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, fresh)

	// Sources and users are independent.
	fresh, err = db.Storage.FilterImported(ctx, "a@example.com", "plaid", []string{"t1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, fresh)

	cursor, err := db.Storage.GetSyncCursor(ctx, "a@example.com", "plaid")
	require.NoError(t, err)
	assert.Empty(t, cursor)

	require.NoError(t, db.Storage.SaveSyncCursor(ctx, "a@example.com", "plaid", "c1"))
	require.NoError(t, db.Storage.SaveSyncCursor(ctx, "a@example.com", "plaid", "c2"))
	cursor, err = db.Storage.GetSyncCursor(ctx, "a@example.com", "plaid")
	require.NoError(t, err)
	assert.Equal(t, "c2", cursor)
}

func TestValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)

	//nolint:staticcheck // nil context is the case under test
	_, _, err := db.Storage.LoadState(nil, "a@example.com")
	assert.ErrorIs(t, err, storage.ErrNilContext)

	_, _, err = db.Storage.LoadState(context.Background(), "")
	assert.ErrorIs(t, err, storage.ErrEmptyString)

	assert.ErrorIs(t, db.Storage.SaveState(context.Background(), "a@example.com", nil), storage.ErrNilParameter)
}
