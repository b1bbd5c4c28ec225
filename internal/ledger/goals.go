package ledger

import (
	"fmt"
	"strings"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

func validateGoal(g model.Goal) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: goal name is required", ErrInvalid)
	}
	if !g.TargetAmount.IsPositive() {
		return fmt.Errorf("%w: target amount must be greater than zero", ErrInvalid)
	}
	if g.CurrentAmount.IsNegative() {
		return fmt.Errorf("%w: saved amount cannot be negative", ErrInvalid)
	}
	return nil
}

// AddGoal creates a savings goal with nothing saved yet.
func (b *Book) AddGoal(g model.Goal) (model.Goal, *State, error) {
	state, err := b.commit(func(s *State) error {
		g.CurrentAmount = decimal.Zero
		if err := validateGoal(g); err != nil {
			return err
		}
		g.ID = b.idOr(g.ID)
		g.TargetDate = model.DateOf(g.TargetDate)
		s.Goals = append(s.Goals, g)
		return nil
	})
	if err != nil {
		return model.Goal{}, state, fmt.Errorf("adding goal: %w", err)
	}
	return g, state, nil
}

// EditGoal replaces a goal's name, target and date. The saved amount is
// only changed by contributions.
func (b *Book) EditGoal(updated model.Goal) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Goals, updated.ID, goalID)
		if i < 0 {
			return fmt.Errorf("goal %s: %w", updated.ID, ErrNotFound)
		}
		updated.CurrentAmount = s.Goals[i].CurrentAmount
		if err := validateGoal(updated); err != nil {
			return err
		}
		updated.TargetDate = model.DateOf(updated.TargetDate)
		s.Goals[i] = updated
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("editing goal: %w", err)
	}
	return state, nil
}

// DeleteGoal removes a goal. Recorded contributions stay in the ledger.
func (b *Book) DeleteGoal(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Goals, id, goalID)
		if i < 0 {
			return fmt.Errorf("goal %s: %w", id, ErrNotFound)
		}
		s.Goals = append(s.Goals[:i], s.Goals[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting goal: %w", err)
	}
	return state, nil
}

// ContributeToGoal moves amount toward a goal, recording it as a savings
// expense on the paying account.
func (b *Book) ContributeToGoal(goalID string, amount decimal.Decimal, fromAccountID string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Goals, goalID, func(g model.Goal) string { return g.ID })
		if i < 0 {
			return fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
		}
		goal := &s.Goals[i]
		if _, err := b.insertTransaction(s, model.Transaction{
			Description: "Contribution to: " + goal.Name,
			Amount:      amount,
			Type:        model.TransactionExpense,
			CategoryID:  savingsCategory(s),
			AccountID:   fromAccountID,
		}); err != nil {
			return err
		}
		goal.CurrentAmount = goal.CurrentAmount.Add(amount)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("contributing to goal: %w", err)
	}
	return state, nil
}
