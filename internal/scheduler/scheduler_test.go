package scheduler

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
	"github.com/Veraticus/zenith/internal/testutil"
	"github.com/Veraticus/zenith/internal/workspace"
)

type countingRunner struct {
	err   error
	calls int
}

func (c *countingRunner) CatchUpAll(context.Context) (int, error) {
	c.calls++
	return 2, c.err
}

func TestRunNow(t *testing.T) {
	runner := &countingRunner{}
	s := New(context.Background(), nil)

	require.NoError(t, s.RunNow(NewCatchUpJob(runner, nil)))
	assert.Equal(t, 1, runner.calls)

	runner.err = errors.New("boom")
	assert.EqualError(t, s.RunNow(NewCatchUpJob(runner, nil)), "boom")
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(context.Background(), nil)
	assert.Error(t, s.AddJob("not a schedule", NewCatchUpJob(&countingRunner{}, nil)))
	assert.NoError(t, s.AddJob("@daily", NewCatchUpJob(&countingRunner{}, nil)))
}

func TestScheduledJobRuns(t *testing.T) {
	runner := &countingRunner{}
	s := New(context.Background(), nil)
	require.NoError(t, s.AddJob("@every 1s", NewCatchUpJob(runner, nil)))

	s.Start()
	time.Sleep(1500 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, runner.calls, 1)
}

func TestCatchUpJobWithManager(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	db := testutil.SetupTestDB(t)
	db.SeedUser("ada@example.com", nil)

	mgr := workspace.NewManager(db.Storage, workspace.WithClock(func() time.Time { return now }))
	ctx := context.Background()
	ws, err := mgr.Get(ctx, "ada@example.com")
	require.NoError(t, err)

	var acctID string
	_, err = ws.Mutate(ctx, func(b *ledger.Book) (*ledger.State, error) {
		acct, state, err := b.AddAccount(ledger.NewAccount{Name: "Checking", Type: model.AccountChecking})
		acctID = acct.ID
		return state, err
	})
	require.NoError(t, err)

	// Start tomorrow so opening the rule adds nothing yet.
	_, err = ws.Mutate(ctx, func(b *ledger.Book) (*ledger.State, error) {
		_, state, err := b.AddRecurring(model.RecurringTransaction{
			Description: "Coffee",
			Type:        model.TransactionExpense,
			Frequency:   model.FrequencyDaily,
			AccountID:   acctID,
			Amount:      decimal.NewFromInt(4),
			StartDate:   now.AddDate(0, 0, 1),
		})
		return state, err
	})
	require.NoError(t, err)

	now = now.AddDate(0, 0, 2)
	require.NoError(t, New(ctx, nil).RunNow(NewCatchUpJob(mgr, nil)))

	var coffee int
	for _, txn := range ws.State().Transactions {
		if txn.Description == "Coffee" {
			coffee++
		}
	}
	assert.Equal(t, 2, coffee)
}
