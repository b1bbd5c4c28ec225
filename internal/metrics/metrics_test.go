package metrics

import (
	"testing"
	"time"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func txn(id string, typ model.TransactionType, amount string, date time.Time, cat string) model.Transaction {
	return model.Transaction{ID: id, Description: id, Type: typ, Amount: d(amount), Date: date, CategoryID: cat, AccountID: "chk"}
}

type fixedPrices map[string]string

func (f fixedPrices) Price(ticker string) (decimal.Decimal, bool) {
	p, ok := f[ticker]
	if !ok {
		return decimal.Zero, false
	}
	return d(p), true
}

func TestMockPricesAreStable(t *testing.T) {
	p := MockPrices{}
	first, ok := p.Price("AAPL")
	require.True(t, ok)
	second, _ := p.Price("aapl ")
	assert.True(t, first.Equal(second))

	// byte sum 286 -> base 336, within five percent
	assert.True(t, first.GreaterThanOrEqual(d("319.2")), first.String())
	assert.True(t, first.LessThanOrEqual(d("352.8")), first.String())

	_, ok = p.Price("")
	assert.False(t, ok)
}

func TestValue(t *testing.T) {
	holdings := []model.InvestmentHolding{
		{ID: "h1", Ticker: "VTI", Quantity: d("10"), AvgCost: d("200")},
		{ID: "h2", Ticker: "UNQUOTED", Quantity: d("2"), AvgCost: d("50")},
	}
	p := Value(holdings, fixedPrices{"VTI": "250"})

	require.Len(t, p.Holdings, 2)
	assert.True(t, d("2500").Equal(p.Holdings[0].CurrentValue))
	assert.True(t, d("500").Equal(p.Holdings[0].GainLoss))
	assert.True(t, p.Holdings[1].GainLoss.IsZero(), "unquoted holdings are valued at cost")
	assert.True(t, d("2600").Equal(p.TotalValue))
	assert.True(t, d("500").Equal(p.TotalGainLoss))
}

func TestSummarize(t *testing.T) {
	s := &ledger.State{
		Accounts: []model.Account{
			{ID: "chk", Type: model.AccountChecking, Balance: d("1000")},
			{ID: "sav", Type: model.AccountSavings, Balance: d("500")},
			{ID: "cc", Type: model.AccountCreditCard, Balance: d("200")},
			{ID: "inv", Type: model.AccountInvestment},
		},
		Transactions: []model.Transaction{
			txn("salary", model.TransactionIncome, "3000", now, ""),
			txn("food", model.TransactionExpense, "120", now, "cat-1"),
			txn("move", model.TransactionTransfer, "50", now, model.CategoryTransferID),
			{ID: "seed", Type: model.TransactionIncome, Amount: d("1000"), Opening: true, AccountID: "chk"},
		},
		Holdings: []model.InvestmentHolding{{ID: "h", AccountID: "inv", Ticker: "VTI", Quantity: d("4"), AvgCost: d("100")}},
		Loans:    []model.Loan{{ID: "car", CurrentBalance: d("300")}},
	}

	sum := Summarize(s, fixedPrices{"VTI": "100"})
	assert.True(t, d("3000").Equal(sum.TotalIncome))
	assert.True(t, d("120").Equal(sum.TotalExpenses))
	assert.True(t, d("300").Equal(sum.LoanDebt))
	// 1500 owned + 400 portfolio - 200 card - 300 loan
	assert.True(t, d("1400").Equal(sum.NetWorth), sum.NetWorth.String())
}

func TestExpensesByCategory(t *testing.T) {
	s := &ledger.State{
		Categories: model.DefaultCategories(),
		Transactions: []model.Transaction{
			txn("a", model.TransactionExpense, "10", now, "cat-1"),
			txn("b", model.TransactionExpense, "30", now, "cat-2"),
			txn("c", model.TransactionExpense, "15", now, "cat-1"),
			txn("d", model.TransactionExpense, "99", now, ""),
			txn("e", model.TransactionIncome, "99", now, "cat-1"),
		},
	}
	got := ExpensesByCategory(s)
	require.Len(t, got, 2)
	assert.Equal(t, "Transport", got[0].Name)
	assert.Equal(t, "Food", got[1].Name)
	assert.True(t, d("25").Equal(got[1].Value))
	assert.True(t, d("25").Equal(SpentForCategory(s, "cat-1")))
}

func TestMonthlyKeepsLastTwelve(t *testing.T) {
	s := &ledger.State{}
	start := day(2024, time.January, 10)
	for i := 0; i < 14; i++ {
		s.Transactions = append(s.Transactions,
			txn("in", model.TransactionIncome, "100", start.AddDate(0, i, 0), ""),
			txn("out", model.TransactionExpense, "40", start.AddDate(0, i, 0), ""))
	}
	s.Transactions = append(s.Transactions, model.Transaction{ID: "seed", Type: model.TransactionIncome, Amount: d("5000"), Opening: true, Date: start.AddDate(0, 13, 0)})

	months := Monthly(s)
	require.Len(t, months, MonthWindow)
	assert.Equal(t, day(2024, time.March, 1), months[0].Month)
	assert.Equal(t, "Feb 25", months[11].Label)
	assert.True(t, d("100").Equal(months[11].Income), "opening seeds are not income")

	series := NetWorthSeries(months)
	require.Len(t, series, MonthWindow)
	assert.True(t, d("60").Equal(series[0].Balance))
	assert.True(t, d("720").Equal(series[11].Balance))
}

func TestBudgetsUseThisMonth(t *testing.T) {
	s := &ledger.State{
		Categories: model.DefaultCategories(),
		Budgets:    []model.Budget{{ID: "b1", CategoryID: "cat-1", Amount: d("200")}},
		Transactions: []model.Transaction{
			txn("now", model.TransactionExpense, "150", now, "cat-1"),
			txn("old", model.TransactionExpense, "500", now.AddDate(0, -1, 0), "cat-1"),
		},
	}
	st := Budgets(s, now)
	require.Len(t, st, 1)
	assert.Equal(t, "Food", st[0].CategoryName)
	assert.True(t, d("150").Equal(st[0].Spent))
	assert.InDelta(t, 0.75, st[0].Ratio, 1e-9)
}
