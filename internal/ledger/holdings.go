package ledger

import (
	"fmt"
	"strings"

	"github.com/Veraticus/zenith/internal/model"
)

func validateHolding(s *State, h model.InvestmentHolding) error {
	acct, ok := s.Account(h.AccountID)
	if !ok {
		return fmt.Errorf("%w: account %q does not exist", ErrInvalid, h.AccountID)
	}
	if acct.Type != model.AccountInvestment {
		return fmt.Errorf("%w: %s is not an investment account", ErrInvalid, acct.Name)
	}
	if strings.TrimSpace(h.Ticker) == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalid)
	}
	if !h.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be greater than zero", ErrInvalid)
	}
	if h.AvgCost.IsNegative() {
		return fmt.Errorf("%w: average cost cannot be negative", ErrInvalid)
	}
	return nil
}

func normalizeHolding(h model.InvestmentHolding) model.InvestmentHolding {
	h.Ticker = strings.ToUpper(strings.TrimSpace(h.Ticker))
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		h.Name = h.Ticker
	}
	if h.Type == "" {
		h.Type = model.HoldingStock
	}
	return h
}

// AddHolding records a position in an investment account.
func (b *Book) AddHolding(h model.InvestmentHolding) (model.InvestmentHolding, *State, error) {
	state, err := b.commit(func(s *State) error {
		h = normalizeHolding(h)
		if err := validateHolding(s, h); err != nil {
			return err
		}
		h.ID = b.idOr(h.ID)
		s.Holdings = append(s.Holdings, h)
		return nil
	})
	if err != nil {
		return model.InvestmentHolding{}, state, fmt.Errorf("adding holding: %w", err)
	}
	return h, state, nil
}

// EditHolding replaces a position.
func (b *Book) EditHolding(updated model.InvestmentHolding) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Holdings, updated.ID, holdingID)
		if i < 0 {
			return fmt.Errorf("holding %s: %w", updated.ID, ErrNotFound)
		}
		updated = normalizeHolding(updated)
		if err := validateHolding(s, updated); err != nil {
			return err
		}
		s.Holdings[i] = updated
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("editing holding: %w", err)
	}
	return state, nil
}

// DeleteHolding removes a position.
func (b *Book) DeleteHolding(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Holdings, id, holdingID)
		if i < 0 {
			return fmt.Errorf("holding %s: %w", id, ErrNotFound)
		}
		s.Holdings = append(s.Holdings[:i], s.Holdings[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting holding: %w", err)
	}
	return state, nil
}
