package ledger

import (
	"fmt"
	"strings"

	"github.com/Veraticus/zenith/internal/model"
)

func validateBill(s *State, bill model.Bill) error {
	if strings.TrimSpace(bill.Name) == "" {
		return fmt.Errorf("%w: bill name is required", ErrInvalid)
	}
	if !bill.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalid)
	}
	if bill.DueDay < 1 || bill.DueDay > 31 {
		return fmt.Errorf("%w: due day must be between 1 and 31", ErrInvalid)
	}
	if _, ok := s.Category(bill.CategoryID); !ok {
		return fmt.Errorf("%w: category %q does not exist", ErrInvalid, bill.CategoryID)
	}
	if bill.AccountID != "" {
		if _, ok := s.Account(bill.AccountID); !ok {
			return fmt.Errorf("%w: account %q does not exist", ErrInvalid, bill.AccountID)
		}
	}
	return nil
}

// AddBill stores a monthly bill. Bills are kept ordered by due day.
func (b *Book) AddBill(bill model.Bill) (model.Bill, *State, error) {
	state, err := b.commit(func(s *State) error {
		if err := validateBill(s, bill); err != nil {
			return err
		}
		bill.ID = b.idOr(bill.ID)
		bill.LastPaidDate = nil
		s.Bills = append(s.Bills, bill)
		sortBills(s.Bills)
		return nil
	})
	if err != nil {
		return model.Bill{}, state, fmt.Errorf("adding bill: %w", err)
	}
	return bill, state, nil
}

// EditBill replaces a bill, keeping its payment history.
func (b *Book) EditBill(updated model.Bill) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Bills, updated.ID, billID)
		if i < 0 {
			return fmt.Errorf("bill %s: %w", updated.ID, ErrNotFound)
		}
		if err := validateBill(s, updated); err != nil {
			return err
		}
		updated.LastPaidDate = s.Bills[i].LastPaidDate
		s.Bills[i] = updated
		sortBills(s.Bills)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("editing bill: %w", err)
	}
	return state, nil
}

// DeleteBill removes a bill.
func (b *Book) DeleteBill(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Bills, id, billID)
		if i < 0 {
			return fmt.Errorf("bill %s: %w", id, ErrNotFound)
		}
		s.Bills = append(s.Bills[:i], s.Bills[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting bill: %w", err)
	}
	return state, nil
}

// PayBill records this month's payment of a bill from an account. An empty
// account id falls back to the bill's default account.
func (b *Book) PayBill(id, fromAccountID string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Bills, id, billID)
		if i < 0 {
			return fmt.Errorf("bill %s: %w", id, ErrNotFound)
		}
		bill := s.Bills[i]
		if fromAccountID == "" {
			fromAccountID = bill.AccountID
		}
		today := b.today()
		if _, err := b.insertTransaction(s, model.Transaction{
			Description: "Bill Payment: " + bill.Name,
			Amount:      bill.Amount,
			Type:        model.TransactionExpense,
			CategoryID:  bill.CategoryID,
			AccountID:   fromAccountID,
			Date:        b.clock(),
		}); err != nil {
			return err
		}
		bill.LastPaidDate = &today
		s.Bills[i] = bill
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("paying bill: %w", err)
	}
	return state, nil
}
