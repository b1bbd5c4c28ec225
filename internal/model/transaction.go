package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType describes the direction of a transaction.
type TransactionType string

// Transaction type constants.
const (
	TransactionIncome   TransactionType = "Income"
	TransactionExpense  TransactionType = "Expense"
	TransactionTransfer TransactionType = "Transfer"
)

// ParseTransactionType resolves user input such as "expense".
func ParseTransactionType(s string) (TransactionType, error) {
	switch normalizeKey(s) {
	case "income", "in":
		return TransactionIncome, nil
	case "expense", "out":
		return TransactionExpense, nil
	case "transfer":
		return TransactionTransfer, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense || t == TransactionTransfer
}

// Transaction is a single ledger entry.
// For Income and Expense AccountID is the affected account; for Transfer it
// is the source and ToAccountID the destination.
type Transaction struct {
	Date        time.Time       `json:"date"`
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	CategoryID  string          `json:"categoryId,omitempty"`
	AccountID   string          `json:"accountId"`
	ToAccountID string          `json:"toAccountId,omitempty"`
	LoanID      string          `json:"loanId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	// Opening marks a seed transaction whose effect is already part of the
	// account's starting balance.
	Opening bool `json:"opening,omitempty"`
}

// IsTransfer reports whether the transaction moves money between accounts.
func (t Transaction) IsTransfer() bool {
	return t.Type == TransactionTransfer
}
