package export_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/zenith/internal/export"
	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/testutil"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestFilename(t *testing.T) {
	assert.Equal(t, "zenith_recurring_transactions_2025-03-15.csv", export.Filename(export.Recurring, now))
}

func TestWriteCSVQuotesEveryField(t *testing.T) {
	table := export.Table{
		Name:   "sample",
		Header: []string{"id", "note"},
		Rows: [][]string{
			{"1", `say "hi"`},
			{"2", "a,b"},
		},
	}

	var b strings.Builder
	require.NoError(t, export.WriteCSV(&b, table))
	assert.Equal(t, "id,note\n\"1\",\"say \"\"hi\"\"\"\n\"2\",\"a,b\"", b.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var b strings.Builder
	err := export.WriteCSV(&b, export.Table{Name: "goals", Header: []string{"id"}})
	assert.ErrorIs(t, err, export.ErrNoData)
	assert.Empty(t, b.String())
}

func TestBuildTransactionsResolvesNames(t *testing.T) {
	fixture := testutil.NewLedgerBuilder(t, now).
		WithAccount("Checking", model.AccountChecking, "100").
		WithTransaction("Checking", model.TransactionExpense, "cat-1", "12.5", now)
	state := fixture.Build()

	table, err := export.Build(state, export.Transactions)
	require.NoError(t, err)

	var row []string
	for _, r := range table.Rows {
		if r[4] == string(model.TransactionExpense) && r[5] == "cat-1" {
			row = r
		}
	}
	require.NotNil(t, row)
	assert.Equal(t, "12.50", row[3])
	assert.Equal(t, "Food", row[8])
	assert.Equal(t, "Checking", row[9])
	assert.Len(t, row, len(table.Header))
}

func TestBuildBudgetsUnknownCategory(t *testing.T) {
	state := &ledger.State{
		Budgets: []model.Budget{{ID: "b1", CategoryID: "gone", Amount: decimal.NewFromInt(50)}},
	}

	table, err := export.Build(state, export.Budgets)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"b1", "gone", "50.00", "Unknown"}, table.Rows[0])
}

func TestBuildUnknownCollection(t *testing.T) {
	_, err := export.Build(ledger.DefaultState(), "loans")
	assert.ErrorIs(t, err, export.ErrUnknownCollection)
}

func TestAll(t *testing.T) {
	tables := export.All(ledger.DefaultState())
	require.Len(t, tables, len(export.Names))
	assert.Equal(t, "Recurring Transactions", tables[3].Title())
	assert.Len(t, tables[4].Rows, len(model.DefaultCategories()))
	assert.Empty(t, tables[0].Rows)
}
