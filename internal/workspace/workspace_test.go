package workspace_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/service"
	"github.com/Veraticus/zenith/internal/storage"
	"github.com/Veraticus/zenith/internal/testutil"
	"github.com/Veraticus/zenith/internal/workspace"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func TestOpenCreatesDefaultLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedUser("a@example.com", nil)
	ctx := context.Background()

	w, err := workspace.Open(ctx, db.Storage, "a@example.com", workspace.WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCategories(), w.State().Categories)

	_, found, err := db.Storage.LoadState(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestOpenUnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := workspace.Open(context.Background(), db.Storage, "ghost@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestMutatePersists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedUser("a@example.com", nil)
	ctx := context.Background()

	w, err := workspace.Open(ctx, db.Storage, "a@example.com", workspace.WithClock(clock))
	require.NoError(t, err)

	_, err = w.Mutate(ctx, func(b *ledger.Book) (*ledger.State, error) {
		_, state, err := b.AddAccount(ledger.NewAccount{
			Name: "Checking", Type: model.AccountChecking, InitialBalance: decimal.NewFromInt(500),
		})
		return state, err
	})
	require.NoError(t, err)

	saved, _, err := db.Storage.LoadState(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, saved.Accounts, 1)
	assert.Equal(t, "Checking", saved.Accounts[0].Name)

	// A failing mutation leaves storage untouched.
	_, err = w.Mutate(ctx, func(b *ledger.Book) (*ledger.State, error) {
		_, state, err := b.AddAccount(ledger.NewAccount{Type: model.AccountChecking})
		return state, err
	})
	assert.ErrorIs(t, err, ledger.ErrInvalid)

	saved, _, err = db.Storage.LoadState(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, saved.Accounts, 1)
}

var errDiskFull = errors.New("disk full")

// flakyStore fails SaveState while broken is set.
type flakyStore struct {
	service.Storage
	broken bool
}

func (s *flakyStore) SaveState(ctx context.Context, userID string, state *ledger.State) error {
	if s.broken {
		return errDiskFull
	}
	return s.Storage.SaveState(ctx, userID, state)
}

func TestMutateRollsBackWhenSaveFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedUser("a@example.com", nil)
	ctx := context.Background()
	store := &flakyStore{Storage: db.Storage}

	w, err := workspace.Open(ctx, store, "a@example.com", workspace.WithClock(clock))
	require.NoError(t, err)
	before := w.State()

	store.broken = true
	addChecking := func(b *ledger.Book) (*ledger.State, error) {
		_, state, err := b.AddAccount(ledger.NewAccount{
			Name: "Checking", Type: model.AccountChecking, InitialBalance: decimal.NewFromInt(500),
		})
		return state, err
	}
	_, err = w.Mutate(ctx, addChecking)
	require.ErrorIs(t, err, errDiskFull)
	assert.Same(t, before, w.State())
	assert.Empty(t, w.State().Accounts)

	require.ErrorIs(t, w.Reset(ctx), errDiskFull)
	assert.Same(t, before, w.State())

	// Once storage recovers the same mutation succeeds and is saved.
	store.broken = false
	_, err = w.Mutate(ctx, addChecking)
	require.NoError(t, err)

	saved, _, err := db.Storage.LoadState(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, saved.Accounts, 1)
	assert.Equal(t, "Checking", saved.Accounts[0].Name)
}

func TestOpenCatchesUpRecurring(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixture := testutil.NewLedgerBuilder(t, now).
		WithAccount("Checking", model.AccountChecking, "1000")
	state := fixture.Build()
	state.Recurring = []model.RecurringTransaction{{
		ID:          "r1",
		Description: "Gym",
		Type:        model.TransactionExpense,
		CategoryID:  "cat-6",
		Frequency:   model.FrequencyWeekly,
		AccountID:   fixture.AccountID("Checking"),
		Amount:      decimal.NewFromInt(10),
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}}
	db.SeedUser("a@example.com", state)
	ctx := context.Background()

	w, err := workspace.Open(ctx, db.Storage, "a@example.com", workspace.WithClock(clock))
	require.NoError(t, err)

	// Mar 1 and Mar 8 and Mar 15.
	acct, ok := w.State().Account(fixture.AccountID("Checking"))
	require.True(t, ok)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(970)), acct.Balance.String())

	// Reopening does not double-apply.
	w, err = workspace.Open(ctx, db.Storage, "a@example.com", workspace.WithClock(clock))
	require.NoError(t, err)
	acct, _ = w.State().Account(fixture.AccountID("Checking"))
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(970)))
}

func TestNotificationsDerivedAndMarkedRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	state := testutil.NewLedgerBuilder(t, now).
		WithAccount("Checking", model.AccountChecking, "1000").
		WithBudget("cat-1", "100").
		WithTransaction("Checking", model.TransactionExpense, "cat-1", "95", now).
		Build()
	db.SeedUser("a@example.com", state)
	ctx := context.Background()

	w, err := workspace.Open(ctx, db.Storage, "a@example.com", workspace.WithClock(clock))
	require.NoError(t, err)

	inbox := w.Notifications()
	require.NotEmpty(t, inbox)
	var budgetID string
	for _, n := range inbox {
		if n.Type == model.NotificationBudget {
			budgetID = n.ID
		}
	}
	require.NotEmpty(t, budgetID)

	require.NoError(t, w.MarkRead(ctx, budgetID))
	assert.ErrorIs(t, w.MarkRead(ctx, "missing"), ledger.ErrNotFound)

	saved, err := db.Storage.LoadNotifications(ctx, "a@example.com")
	require.NoError(t, err)
	for _, n := range saved {
		if n.ID == budgetID {
			assert.True(t, n.IsRead)
		}
	}

	require.NoError(t, w.MarkAllRead(ctx))
	assert.Zero(t, w.Notifications().UnreadCount())
}

func TestUpgradeLiftsBudgetLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedUser("a@example.com", nil)
	ctx := context.Background()

	w, err := workspace.Open(ctx, db.Storage, "a@example.com", workspace.WithClock(clock))
	require.NoError(t, err)

	setBudget := func(cat string) error {
		_, err := w.Mutate(ctx, func(b *ledger.Book) (*ledger.State, error) {
			_, state, err := b.SetBudget(cat, decimal.NewFromInt(100))
			return state, err
		})
		return err
	}
	for _, cat := range []string{"cat-1", "cat-2", "cat-3"} {
		require.NoError(t, setBudget(cat))
	}
	assert.ErrorIs(t, setBudget("cat-4"), ledger.ErrBudgetLimit)

	require.NoError(t, w.Upgrade(ctx))
	assert.True(t, w.User().IsPremium())
	assert.NoError(t, setBudget("cat-4"))
}

func TestReset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	state := testutil.NewLedgerBuilder(t, now).
		WithAccount("Checking", model.AccountChecking, "10").
		Build()
	db.SeedUser("a@example.com", state)
	ctx := context.Background()

	w, err := workspace.Open(ctx, db.Storage, "a@example.com", workspace.WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, w.Reset(ctx))

	saved, _, err := db.Storage.LoadState(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Empty(t, saved.Accounts)
	assert.Empty(t, w.Notifications())
}

func TestManager(t *testing.T) {
	db := testutil.SetupTestDB(t)
	db.SeedUser("a@example.com", nil)
	db.SeedUser("b@example.com", nil)
	ctx := context.Background()

	m := workspace.NewManager(db.Storage, workspace.WithClock(clock))
	first, err := m.Get(ctx, "A@example.com")
	require.NoError(t, err)
	second, err := m.Get(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Same(t, first, second)

	n, err := m.CatchUpAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
