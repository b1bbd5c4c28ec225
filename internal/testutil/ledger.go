package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

// LedgerBuilder assembles a ledger fixture through a real Book, so every
// fixture satisfies the ledger's invariants. Failures stop the test.
type LedgerBuilder struct {
	t        *testing.T
	book     *ledger.Book
	accounts map[string]string
}

// NewLedgerBuilder starts an empty ledger whose clock is fixed at now.
func NewLedgerBuilder(t *testing.T, now time.Time) *LedgerBuilder {
	t.Helper()
	return &LedgerBuilder{
		t:        t,
		book:     ledger.New(ledger.WithClock(func() time.Time { return now }), ledger.WithPlan(model.PlanPremium)),
		accounts: make(map[string]string),
	}
}

// WithAccount opens an account. The name is used to refer to it later.
func (b *LedgerBuilder) WithAccount(name string, typ model.AccountType, balance string) *LedgerBuilder {
	b.t.Helper()
	acct, _, err := b.book.AddAccount(ledger.NewAccount{
		Name:           name,
		Type:           typ,
		InitialBalance: decimal.RequireFromString(balance),
	})
	if err != nil {
		b.t.Fatalf("fixture account %q: %v", name, err)
	}
	b.accounts[name] = acct.ID
	return b
}

// WithTransaction records a transaction against a named account.
func (b *LedgerBuilder) WithTransaction(account string, typ model.TransactionType, categoryID, amount string, date time.Time) *LedgerBuilder {
	b.t.Helper()
	_, _, err := b.book.AddTransaction(model.Transaction{
		Description: string(typ) + " " + amount,
		Type:        typ,
		CategoryID:  categoryID,
		AccountID:   b.AccountID(account),
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
	})
	if err != nil {
		b.t.Fatalf("fixture transaction on %q: %v", account, err)
	}
	return b
}

// WithBudget sets a monthly budget for a category.
func (b *LedgerBuilder) WithBudget(categoryID, amount string) *LedgerBuilder {
	b.t.Helper()
	if _, _, err := b.book.SetBudget(categoryID, decimal.RequireFromString(amount)); err != nil {
		b.t.Fatalf("fixture budget %q: %v", categoryID, err)
	}
	return b
}

// AccountID resolves a fixture account name.
func (b *LedgerBuilder) AccountID(name string) string {
	b.t.Helper()
	id, ok := b.accounts[name]
	if !ok {
		b.t.Fatalf("fixture account %q was never added", name)
	}
	return id
}

// Build returns the assembled state.
func (b *LedgerBuilder) Build() *ledger.State {
	return b.book.State()
}
