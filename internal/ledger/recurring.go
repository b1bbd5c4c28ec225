package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/recurrence"
)

func validateRecurring(s *State, r model.RecurringTransaction) error {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalid)
	}
	if r.Type != model.TransactionIncome && r.Type != model.TransactionExpense {
		return fmt.Errorf("%w: recurring rules are income or expense", ErrInvalid)
	}
	if _, err := recurrence.StepperFor(r.Frequency); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalid)
	}
	if _, ok := s.Account(r.AccountID); !ok {
		return fmt.Errorf("%w: account %q does not exist", ErrInvalid, r.AccountID)
	}
	if r.CategoryID != "" {
		if _, ok := s.Category(r.CategoryID); !ok {
			return fmt.Errorf("%w: category %q does not exist", ErrInvalid, r.CategoryID)
		}
	}
	return nil
}

// AddRecurring stores a new rule. Its first occurrence is due on the start
// date, so it is marked as processed up to the day before.
func (b *Book) AddRecurring(r model.RecurringTransaction) (model.RecurringTransaction, *State, error) {
	state, err := b.commit(func(s *State) error {
		r.StartDate = model.DateOf(r.StartDate)
		if err := validateRecurring(s, r); err != nil {
			return err
		}
		r.ID = b.idOr(r.ID)
		r.LastProcessedDate = r.StartDate.AddDate(0, 0, -1)
		s.Recurring = append(s.Recurring, r)
		return nil
	})
	if err != nil {
		return model.RecurringTransaction{}, state, fmt.Errorf("adding recurring transaction: %w", err)
	}
	return r, state, nil
}

// EditRecurring replaces a rule's template. Moving the start date restarts
// the schedule from the new start; otherwise progress is kept.
func (b *Book) EditRecurring(updated model.RecurringTransaction) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Recurring, updated.ID, recurringID)
		if i < 0 {
			return fmt.Errorf("recurring transaction %s: %w", updated.ID, ErrNotFound)
		}
		updated.StartDate = model.DateOf(updated.StartDate)
		if err := validateRecurring(s, updated); err != nil {
			return err
		}
		cur := s.Recurring[i]
		updated.LastProcessedDate = cur.LastProcessedDate
		if !updated.StartDate.Equal(model.DateOf(cur.StartDate)) {
			updated.LastProcessedDate = updated.StartDate.AddDate(0, 0, -1)
		}
		s.Recurring[i] = updated
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("editing recurring transaction: %w", err)
	}
	return state, nil
}

// DeleteRecurring removes a rule. Transactions it already generated stay.
func (b *Book) DeleteRecurring(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Recurring, id, recurringID)
		if i < 0 {
			return fmt.Errorf("recurring transaction %s: %w", id, ErrNotFound)
		}
		s.Recurring = append(s.Recurring[:i], s.Recurring[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting recurring transaction: %w", err)
	}
	return state, nil
}

// CatchUp materializes every recurring occurrence due on or before today
// and applies it. Occurrences already present in the ledger are skipped,
// so calling CatchUp repeatedly is safe.
func (b *Book) CatchUp(today time.Time) ([]model.Transaction, *State, error) {
	var added []model.Transaction
	state, err := b.commit(func(s *State) error {
		result, err := b.processor.CatchUp(s.Recurring, today)
		if err != nil {
			return err
		}
		for _, t := range result.Transactions {
			if _, exists := s.Transaction(t.ID); exists {
				continue
			}
			inserted, err := b.insertTransaction(s, t)
			if err != nil {
				return fmt.Errorf("recurring occurrence %s: %w", t.ID, err)
			}
			added = append(added, inserted)
		}
		s.Recurring = result.Rules
		return nil
	})
	if err != nil {
		return nil, state, fmt.Errorf("catching up recurring transactions: %w", err)
	}
	if len(added) > 0 {
		b.logger.Info("recurring transactions caught up", "count", len(added))
	}
	return added, state, nil
}
