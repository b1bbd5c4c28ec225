package ledger

import (
	"fmt"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

// inverse returns the type whose effect undoes typ on a single account.
func inverse(typ model.TransactionType) model.TransactionType {
	switch typ {
	case model.TransactionIncome:
		return model.TransactionExpense
	case model.TransactionExpense:
		return model.TransactionIncome
	default:
		return typ
	}
}

// applyTo moves one account's balance by a single-sided effect.
func applyTo(s *State, accountID string, amount decimal.Decimal, typ model.TransactionType) error {
	i := indexOf(s.Accounts, accountID, func(a model.Account) string { return a.ID })
	if i < 0 {
		return fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	acct := &s.Accounts[i]
	acct.Balance = model.Apply(acct.Kind(), acct.Balance, amount, typ)
	return nil
}

// apply books a transaction's full effect. A transfer is an expense on the
// source and an income on the destination.
func apply(s *State, t model.Transaction) error {
	if t.IsTransfer() {
		if err := applyTo(s, t.AccountID, t.Amount, model.TransactionExpense); err != nil {
			return err
		}
		return applyTo(s, t.ToAccountID, t.Amount, model.TransactionIncome)
	}
	return applyTo(s, t.AccountID, t.Amount, t.Type)
}

// reverse undoes exactly what apply did.
func reverse(s *State, t model.Transaction) error {
	if t.IsTransfer() {
		if err := applyTo(s, t.AccountID, t.Amount, model.TransactionIncome); err != nil {
			return err
		}
		return applyTo(s, t.ToAccountID, t.Amount, model.TransactionExpense)
	}
	return applyTo(s, t.AccountID, t.Amount, inverse(t.Type))
}

// Replay recomputes every account balance from zero over the live
// transactions, opening seeds included. For a consistent ledger the result
// equals the stored balances.
func (s *State) Replay() (map[string]decimal.Decimal, error) {
	scratch := &State{Accounts: make([]model.Account, len(s.Accounts))}
	for i, a := range s.Accounts {
		a.Balance = decimal.Zero
		scratch.Accounts[i] = a
	}
	for _, t := range s.Transactions {
		if err := apply(scratch, t); err != nil {
			return nil, fmt.Errorf("replaying %s: %w", t.ID, err)
		}
	}

	balances := make(map[string]decimal.Decimal, len(scratch.Accounts))
	for _, a := range scratch.Accounts {
		balances[a.ID] = a.Balance
	}
	return balances, nil
}

// Drift lists accounts whose stored balance differs from the replayed one.
func (s *State) Drift() ([]string, error) {
	replayed, err := s.Replay()
	if err != nil {
		return nil, err
	}
	var drifted []string
	for _, a := range s.Accounts {
		if !a.Balance.Equal(replayed[a.ID]) {
			drifted = append(drifted, a.ID)
		}
	}
	return drifted, nil
}
