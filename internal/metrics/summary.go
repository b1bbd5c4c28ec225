package metrics

import (
	"sort"
	"time"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

// Summary is the headline view of a ledger.
type Summary struct {
	TotalIncome    decimal.Decimal `json:"totalIncome"`
	TotalExpenses  decimal.Decimal `json:"totalExpenses"`
	NetWorth       decimal.Decimal `json:"netWorth"`
	AssetBalance   decimal.Decimal `json:"assetBalance"`
	PortfolioValue decimal.Decimal `json:"portfolioValue"`
	CreditCardDebt decimal.Decimal `json:"creditCardDebt"`
	LoanDebt       decimal.Decimal `json:"loanDebt"`
}

// flows reports whether t counts as real income or spending. Transfers
// move money without creating it and opening seeds only restate balances.
func flows(t model.Transaction) bool {
	return !t.Opening && t.Type != model.TransactionTransfer
}

// Summarize totals income and expenses over all time and computes net
// worth: owned balances plus the portfolio, less card and loan debt.
func Summarize(s *ledger.State, prices PriceSource) Summary {
	var sum Summary
	for _, t := range s.Transactions {
		if !flows(t) {
			continue
		}
		switch t.Type {
		case model.TransactionIncome:
			sum.TotalIncome = sum.TotalIncome.Add(t.Amount)
		case model.TransactionExpense:
			sum.TotalExpenses = sum.TotalExpenses.Add(t.Amount)
		}
	}

	for _, a := range s.Accounts {
		switch a.Type {
		case model.AccountInvestment:
		case model.AccountCreditCard:
			sum.CreditCardDebt = sum.CreditCardDebt.Add(a.Balance)
		default:
			sum.AssetBalance = sum.AssetBalance.Add(a.Balance)
		}
	}
	for _, l := range s.Loans {
		sum.LoanDebt = sum.LoanDebt.Add(l.CurrentBalance)
	}
	sum.PortfolioValue = Value(s.Holdings, prices).TotalValue
	sum.NetWorth = sum.AssetBalance.Add(sum.PortfolioValue).Sub(sum.CreditCardDebt).Sub(sum.LoanDebt)
	return sum
}

// CategoryTotal is spending in one category.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Value      decimal.Decimal `json:"value"`
}

// ExpensesByCategory totals all-time categorized expenses, largest first.
func ExpensesByCategory(s *ledger.State) []CategoryTotal {
	totals := map[string]decimal.Decimal{}
	for _, t := range s.Transactions {
		if t.Type != model.TransactionExpense || t.CategoryID == "" || !flows(t) {
			continue
		}
		totals[t.CategoryID] = totals[t.CategoryID].Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for id, v := range totals {
		name := s.CategoryName(id)
		if name == "" {
			name = "Uncategorized"
		}
		out = append(out, CategoryTotal{CategoryID: id, Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SpentForCategory is the all-time expense total of a category.
func SpentForCategory(s *ledger.State, categoryID string) decimal.Decimal {
	spent := decimal.Zero
	for _, t := range s.Transactions {
		if t.Type == model.TransactionExpense && t.CategoryID == categoryID && flows(t) {
			spent = spent.Add(t.Amount)
		}
	}
	return spent
}

// SpentThisMonth is a category's expense total in now's calendar month.
func SpentThisMonth(s *ledger.State, categoryID string, now time.Time) decimal.Decimal {
	spent := decimal.Zero
	for _, t := range s.Transactions {
		if t.Type == model.TransactionExpense && t.CategoryID == categoryID && flows(t) && model.SameMonth(t.Date, now) {
			spent = spent.Add(t.Amount)
		}
	}
	return spent
}

// BudgetStatus is a budget with this month's spending against it.
type BudgetStatus struct {
	model.Budget
	CategoryName string          `json:"categoryName"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Ratio        float64         `json:"ratio"`
}

// Budgets reports every budget's spending for now's month.
func Budgets(s *ledger.State, now time.Time) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(s.Budgets))
	for _, b := range s.Budgets {
		spent := SpentThisMonth(s, b.CategoryID, now)
		st := BudgetStatus{
			Budget:       b,
			CategoryName: s.CategoryName(b.CategoryID),
			Spent:        spent,
			Remaining:    b.Amount.Sub(spent),
			Ratio:        1,
		}
		if b.Amount.IsPositive() {
			st.Ratio = spent.Div(b.Amount).InexactFloat64()
		}
		out = append(out, st)
	}
	return out
}
