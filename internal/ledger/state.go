package ledger

import (
	"slices"

	"github.com/Veraticus/zenith/internal/model"
)

// State is an immutable snapshot of a user's ledger. Callers must treat
// every slice as read-only; the Book never mutates a published snapshot.
type State struct {
	Accounts     []model.Account              `json:"accounts"`
	Transactions []model.Transaction          `json:"transactions"`
	Categories   []model.Category             `json:"categories"`
	Budgets      []model.Budget               `json:"budgets"`
	Recurring    []model.RecurringTransaction `json:"recurring"`
	Goals        []model.Goal                 `json:"goals"`
	Holdings     []model.InvestmentHolding    `json:"holdings"`
	Bills        []model.Bill                 `json:"bills"`
	Loans        []model.Loan                 `json:"loans"`
}

// DefaultState returns an empty ledger with the default categories.
func DefaultState() *State {
	return &State{Categories: model.DefaultCategories()}
}

// clone copies every collection so the copy can be edited in place.
func (s *State) clone() *State {
	return &State{
		Accounts:     slices.Clone(s.Accounts),
		Transactions: slices.Clone(s.Transactions),
		Categories:   slices.Clone(s.Categories),
		Budgets:      slices.Clone(s.Budgets),
		Recurring:    slices.Clone(s.Recurring),
		Goals:        slices.Clone(s.Goals),
		Holdings:     slices.Clone(s.Holdings),
		Bills:        slices.Clone(s.Bills),
		Loans:        slices.Clone(s.Loans),
	}
}

func indexOf[T any](items []T, id string, key func(T) string) int {
	return slices.IndexFunc(items, func(item T) bool { return key(item) == id })
}

func accountID(a model.Account) string { return a.ID }
func transactionID(t model.Transaction) string { return t.ID }
func categoryID(c model.Category) string { return c.ID }
func budgetID(b model.Budget) string { return b.ID }
func recurringID(r model.RecurringTransaction) string { return r.ID }
func goalID(g model.Goal) string { return g.ID }
func holdingID(h model.InvestmentHolding) string { return h.ID }
func billID(b model.Bill) string { return b.ID }
func loanID(l model.Loan) string { return l.ID }

// Account returns the account with id.
func (s *State) Account(id string) (model.Account, bool) {
	if i := indexOf(s.Accounts, id, accountID); i >= 0 {
		return s.Accounts[i], true
	}
	return model.Account{}, false
}

// Transaction returns the transaction with id.
func (s *State) Transaction(id string) (model.Transaction, bool) {
	if i := indexOf(s.Transactions, id, transactionID); i >= 0 {
		return s.Transactions[i], true
	}
	return model.Transaction{}, false
}

// Category returns the category with id.
func (s *State) Category(id string) (model.Category, bool) {
	if i := indexOf(s.Categories, id, categoryID); i >= 0 {
		return s.Categories[i], true
	}
	return model.Category{}, false
}

// CategoryName resolves a category id to its name, or "" when unknown.
func (s *State) CategoryName(id string) string {
	c, _ := s.Category(id)
	return c.Name
}

// AccountName resolves an account id to its name, or "" when unknown.
func (s *State) AccountName(id string) string {
	a, _ := s.Account(id)
	return a.Name
}

// Goal returns the goal with id.
func (s *State) Goal(id string) (model.Goal, bool) {
	if i := indexOf(s.Goals, id, goalID); i >= 0 {
		return s.Goals[i], true
	}
	return model.Goal{}, false
}

// Bill returns the bill with id.
func (s *State) Bill(id string) (model.Bill, bool) {
	if i := indexOf(s.Bills, id, billID); i >= 0 {
		return s.Bills[i], true
	}
	return model.Bill{}, false
}

// Loan returns the loan with id.
func (s *State) Loan(id string) (model.Loan, bool) {
	if i := indexOf(s.Loans, id, loanID); i >= 0 {
		return s.Loans[i], true
	}
	return model.Loan{}, false
}

// BudgetFor returns the budget set on a category.
func (s *State) BudgetFor(categoryID string) (model.Budget, bool) {
	for _, b := range s.Budgets {
		if b.CategoryID == categoryID {
			return b, true
		}
	}
	return model.Budget{}, false
}

// HoldingsIn returns the holdings of one investment account.
func (s *State) HoldingsIn(accountID string) []model.InvestmentHolding {
	var out []model.InvestmentHolding
	for _, h := range s.Holdings {
		if h.AccountID == accountID {
			out = append(out, h)
		}
	}
	return out
}

// sortTransactions keeps transactions newest first. Callers prepend, so the
// most recently recorded of same-dated transactions comes first.
func sortTransactions(txns []model.Transaction) {
	slices.SortStableFunc(txns, func(a, b model.Transaction) int {
		return b.Date.Compare(a.Date)
	})
}

func sortBills(bills []model.Bill) {
	slices.SortStableFunc(bills, func(a, b model.Bill) int {
		return a.DueDay - b.DueDay
	})
}
