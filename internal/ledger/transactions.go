package ledger

import (
	"fmt"
	"strings"

	"github.com/Veraticus/zenith/internal/model"
)

// validateTransaction checks a transaction against the accounts and
// categories present in s.
func validateTransaction(s *State, t model.Transaction) error {
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalid)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: transaction type %q", ErrInvalid, t.Type)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}
	if _, ok := s.Account(t.AccountID); !ok {
		return fmt.Errorf("%w: account %q does not exist", ErrInvalid, t.AccountID)
	}
	if t.CategoryID != "" {
		if _, ok := s.Category(t.CategoryID); !ok {
			return fmt.Errorf("%w: category %q does not exist", ErrInvalid, t.CategoryID)
		}
	}
	if t.IsTransfer() {
		if t.ToAccountID == "" || t.ToAccountID == t.AccountID {
			return fmt.Errorf("%w: transfer needs two different accounts", ErrInvalid)
		}
		if _, ok := s.Account(t.ToAccountID); !ok {
			return fmt.Errorf("%w: account %q does not exist", ErrInvalid, t.ToAccountID)
		}
	} else if t.ToAccountID != "" {
		return fmt.Errorf("%w: only transfers have a destination account", ErrInvalid)
	}
	if t.LoanID != "" {
		if _, ok := s.Loan(t.LoanID); !ok {
			return fmt.Errorf("%w: loan %q does not exist", ErrInvalid, t.LoanID)
		}
	}
	return nil
}

// insertTransaction validates, applies and records t. Callers can never
// mark a transaction as an opening seed; only insertSeed does.
func (b *Book) insertTransaction(s *State, t model.Transaction) (model.Transaction, error) {
	t.Opening = false
	return b.record(s, t)
}

// insertSeed records an opening seed whose effect is already part of the
// account balance.
func (b *Book) insertSeed(s *State, t model.Transaction) (model.Transaction, error) {
	t.Opening = true
	return b.record(s, t)
}

func (b *Book) record(s *State, t model.Transaction) (model.Transaction, error) {
	t.ID = b.idOr(t.ID)
	if t.Date.IsZero() {
		t.Date = b.clock()
	}
	if t.IsTransfer() && t.CategoryID == "" {
		t.CategoryID = model.CategoryTransferID
	}
	if _, exists := s.Transaction(t.ID); exists {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s already exists", ErrInvalid, t.ID)
	}
	if err := validateTransaction(s, t); err != nil {
		return model.Transaction{}, err
	}
	if !t.Opening {
		if err := apply(s, t); err != nil {
			return model.Transaction{}, err
		}
	}
	s.Transactions = append([]model.Transaction{t}, s.Transactions...)
	sortTransactions(s.Transactions)
	return t, nil
}

// AddTransaction records t and applies its effect. A missing id or date is
// filled in; transfers default to the transfer category.
func (b *Book) AddTransaction(t model.Transaction) (model.Transaction, *State, error) {
	var added model.Transaction
	state, err := b.commit(func(s *State) error {
		var err error
		added, err = b.insertTransaction(s, t)
		return err
	})
	if err != nil {
		return model.Transaction{}, state, fmt.Errorf("adding transaction: %w", err)
	}
	return added, state, nil
}

// AddTransactions bulk-adds drafts from a bank sync. Every draft gets a
// fresh sync-prefixed id. The batch is atomic.
func (b *Book) AddTransactions(drafts []model.Transaction) ([]model.Transaction, *State, error) {
	added := make([]model.Transaction, 0, len(drafts))
	state, err := b.commit(func(s *State) error {
		for i, d := range drafts {
			d.ID = "sync-" + b.newID()
			t, err := b.insertTransaction(s, d)
			if err != nil {
				return fmt.Errorf("draft %d: %w", i, err)
			}
			added = append(added, t)
		}
		return nil
	})
	if err != nil {
		return nil, state, fmt.Errorf("adding transactions: %w", err)
	}
	b.logger.Info("bulk added transactions", "count", len(added))
	return added, state, nil
}

// EditTransaction replaces a stored transaction. The old effect is fully
// reversed before the new one is applied, so an edit behaves exactly like
// a delete followed by an add.
func (b *Book) EditTransaction(updated model.Transaction) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Transactions, updated.ID, transactionID)
		if i < 0 {
			return fmt.Errorf("transaction %s: %w", updated.ID, ErrNotFound)
		}
		old := s.Transactions[i]
		if updated.Date.IsZero() {
			updated.Date = old.Date
		}
		if updated.IsTransfer() && updated.CategoryID == "" {
			updated.CategoryID = model.CategoryTransferID
		}
		updated.Opening = false

		if err := reverse(s, old); err != nil {
			return err
		}
		s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)
		if err := validateTransaction(s, updated); err != nil {
			return err
		}
		if err := apply(s, updated); err != nil {
			return err
		}
		s.Transactions = append([]model.Transaction{updated}, s.Transactions...)
		sortTransactions(s.Transactions)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("editing transaction: %w", err)
	}
	return state, nil
}

// DeleteTransaction removes a transaction and reverses its effect.
func (b *Book) DeleteTransaction(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Transactions, id, transactionID)
		if i < 0 {
			return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
		}
		if err := reverse(s, s.Transactions[i]); err != nil {
			return err
		}
		s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting transaction: %w", err)
	}
	return state, nil
}
