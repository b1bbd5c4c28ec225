// Package export flattens ledger collections into tables for CSV files
// and spreadsheets.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

// Exportable collection names.
const (
	Transactions = "transactions"
	Budgets      = "budgets"
	Goals        = "goals"
	Recurring    = "recurring_transactions"
	Categories   = "categories"
)

// Names lists the exportable collections in display order.
var Names = []string{Transactions, Budgets, Goals, Recurring, Categories}

var (
	// ErrUnknownCollection is returned for a name outside Names.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrNoData is returned when a collection has no rows.
	ErrNoData = errors.New("no data available to export")
)

// Table is one collection as header plus string rows.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Title is the human name used for spreadsheet tabs.
func (t Table) Title() string {
	switch t.Name {
	case Transactions:
		return "Transactions"
	case Budgets:
		return "Budgets"
	case Goals:
		return "Goals"
	case Recurring:
		return "Recurring Transactions"
	case Categories:
		return "Categories"
	}
	return t.Name
}

// Build flattens one collection of s.
func Build(s *ledger.State, name string) (Table, error) {
	switch name {
	case Transactions:
		return transactions(s), nil
	case Budgets:
		return budgets(s), nil
	case Goals:
		return goals(s), nil
	case Recurring:
		return recurring(s), nil
	case Categories:
		return categories(s), nil
	}
	return Table{}, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

// All flattens every collection, including empty ones.
func All(s *ledger.State) []Table {
	out := make([]Table, 0, len(Names))
	for _, name := range Names {
		t, _ := Build(s, name)
		out = append(out, t)
	}
	return out
}

func categoryOr(s *ledger.State, id, fallback string) string {
	if c, ok := s.Category(id); ok {
		return c.Name
	}
	return fallback
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

func transactions(s *ledger.State) Table {
	t := Table{
		Name:   Transactions,
		Header: []string{"id", "date", "description", "amount", "type", "categoryId", "accountId", "toAccountId", "categoryName", "accountName"},
	}
	for _, txn := range s.Transactions {
		t.Rows = append(t.Rows, []string{
			txn.ID,
			txn.Date.UTC().Format(time.RFC3339),
			txn.Description,
			txn.Amount.StringFixed(2),
			string(txn.Type),
			txn.CategoryID,
			txn.AccountID,
			txn.ToAccountID,
			categoryOr(s, txn.CategoryID, "N/A"),
			s.AccountName(txn.AccountID),
		})
	}
	return t
}

func budgets(s *ledger.State) Table {
	t := Table{Name: Budgets, Header: []string{"id", "categoryId", "amount", "categoryName"}}
	for _, b := range s.Budgets {
		t.Rows = append(t.Rows, []string{b.ID, b.CategoryID, b.Amount.StringFixed(2), categoryOr(s, b.CategoryID, "Unknown")})
	}
	return t
}

func goals(s *ledger.State) Table {
	t := Table{Name: Goals, Header: []string{"id", "name", "targetAmount", "currentAmount", "targetDate"}}
	for _, g := range s.Goals {
		t.Rows = append(t.Rows, []string{g.ID, g.Name, g.TargetAmount.StringFixed(2), g.CurrentAmount.StringFixed(2), date(g.TargetDate)})
	}
	return t
}

func recurring(s *ledger.State) Table {
	t := Table{
		Name:   Recurring,
		Header: []string{"id", "description", "amount", "type", "categoryId", "accountId", "frequency", "startDate", "lastProcessedDate", "categoryName"},
	}
	for _, r := range s.Recurring {
		t.Rows = append(t.Rows, []string{
			r.ID,
			r.Description,
			r.Amount.StringFixed(2),
			string(r.Type),
			r.CategoryID,
			r.AccountID,
			string(r.Frequency),
			date(r.StartDate),
			date(r.LastProcessedDate),
			categoryOr(s, r.CategoryID, "N/A"),
		})
	}
	return t
}

func categories(s *ledger.State) Table {
	t := Table{Name: Categories, Header: []string{"id", "name"}}
	for _, c := range s.Categories {
		t.Rows = append(t.Rows, []string{c.ID, c.Name})
	}
	return t
}
