package metrics

import (
	"sort"
	"time"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

// MonthWindow is how many months the series keep.
const MonthWindow = 12

// MonthTotal is one calendar month of income and expenses.
type MonthTotal struct {
	Month    time.Time       `json:"month"`
	Label    string          `json:"label"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Net is income less expenses.
func (m MonthTotal) Net() decimal.Decimal {
	return m.Income.Sub(m.Expenses)
}

// Monthly groups income and expenses by calendar month, oldest first, and
// keeps the most recent MonthWindow months that have activity.
func Monthly(s *ledger.State) []MonthTotal {
	byMonth := map[time.Time]*MonthTotal{}
	for _, t := range s.Transactions {
		if !flows(t) {
			continue
		}
		key := model.StartOfMonth(t.Date)
		m, ok := byMonth[key]
		if !ok {
			m = &MonthTotal{Month: key, Label: key.Format("Jan 06")}
			byMonth[key] = m
		}
		if t.Type == model.TransactionIncome {
			m.Income = m.Income.Add(t.Amount)
		} else {
			m.Expenses = m.Expenses.Add(t.Amount)
		}
	}

	out := make([]MonthTotal, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	if len(out) > MonthWindow {
		out = out[len(out)-MonthWindow:]
	}
	return out
}

// NetWorthPoint is the cumulative net flow at the end of a month.
type NetWorthPoint struct {
	Month   time.Time       `json:"month"`
	Label   string          `json:"label"`
	Balance decimal.Decimal `json:"balance"`
}

// NetWorthSeries accumulates monthly net flow across the window.
func NetWorthSeries(months []MonthTotal) []NetWorthPoint {
	out := make([]NetWorthPoint, 0, len(months))
	running := decimal.Zero
	for _, m := range months {
		running = running.Add(m.Net())
		out = append(out, NetWorthPoint{Month: m.Month, Label: m.Label, Balance: running})
	}
	return out
}

// Window totals income and expenses dated strictly after since.
func Window(s *ledger.State, since time.Time) (income, expenses decimal.Decimal) {
	for _, t := range s.Transactions {
		if !flows(t) || !t.Date.After(since) {
			continue
		}
		if t.Type == model.TransactionIncome {
			income = income.Add(t.Amount)
		} else {
			expenses = expenses.Add(t.Amount)
		}
	}
	return income, expenses
}
