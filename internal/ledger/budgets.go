package ledger

import (
	"fmt"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

// SetBudget sets the monthly cap for a category. A category holds at most
// one budget; setting it again updates the amount in place. New budgets
// count against the plan's limit.
func (b *Book) SetBudget(categoryID string, amount decimal.Decimal) (model.Budget, *State, error) {
	var budget model.Budget
	state, err := b.commit(func(s *State) error {
		if !amount.IsPositive() {
			return fmt.Errorf("%w: budget amount must be greater than zero", ErrInvalid)
		}
		if _, ok := s.Category(categoryID); !ok {
			return fmt.Errorf("%w: category %q does not exist", ErrInvalid, categoryID)
		}
		for i := range s.Budgets {
			if s.Budgets[i].CategoryID == categoryID {
				s.Budgets[i].Amount = amount
				budget = s.Budgets[i]
				return nil
			}
		}
		if b.budgetLimit > 0 && len(s.Budgets) >= b.budgetLimit {
			return fmt.Errorf("%w: %d of %d budgets used", ErrBudgetLimit, len(s.Budgets), b.budgetLimit)
		}
		budget = model.Budget{ID: b.newID(), CategoryID: categoryID, Amount: amount}
		s.Budgets = append(s.Budgets, budget)
		return nil
	})
	if err != nil {
		return model.Budget{}, state, fmt.Errorf("setting budget: %w", err)
	}
	return budget, state, nil
}

// DeleteBudget removes a budget.
func (b *Book) DeleteBudget(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Budgets, id, budgetID)
		if i < 0 {
			return fmt.Errorf("budget %s: %w", id, ErrNotFound)
		}
		s.Budgets = append(s.Budgets[:i], s.Budgets[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting budget: %w", err)
	}
	return state, nil
}
