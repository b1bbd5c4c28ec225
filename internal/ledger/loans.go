package ledger

import (
	"fmt"
	"strings"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

func validateLoan(s *State, l model.Loan) error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: loan name is required", ErrInvalid)
	}
	if !l.OriginalPrincipal.IsPositive() {
		return fmt.Errorf("%w: principal must be greater than zero", ErrInvalid)
	}
	if l.InterestRate.IsNegative() {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalid)
	}
	if l.MonthlyPayment.IsNegative() || l.TermInMonths < 0 {
		return fmt.Errorf("%w: payment and term cannot be negative", ErrInvalid)
	}
	if l.LinkedAccountID != "" {
		if _, ok := s.Account(l.LinkedAccountID); !ok {
			return fmt.Errorf("%w: account %q does not exist", ErrInvalid, l.LinkedAccountID)
		}
	}
	return nil
}

// AddLoan stores a loan whose outstanding balance starts at the principal.
func (b *Book) AddLoan(l model.Loan) (model.Loan, *State, error) {
	state, err := b.commit(func(s *State) error {
		if l.Type == "" {
			l.Type = model.LoanOther
		}
		if err := validateLoan(s, l); err != nil {
			return err
		}
		l.ID = b.idOr(l.ID)
		l.CurrentBalance = l.OriginalPrincipal
		if l.StartDate.IsZero() {
			l.StartDate = b.today()
		}
		l.StartDate = model.DateOf(l.StartDate)
		s.Loans = append(s.Loans, l)
		return nil
	})
	if err != nil {
		return model.Loan{}, state, fmt.Errorf("adding loan: %w", err)
	}
	return l, state, nil
}

// EditLoan replaces a loan's terms. The outstanding balance is only changed
// by payments.
func (b *Book) EditLoan(updated model.Loan) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Loans, updated.ID, loanID)
		if i < 0 {
			return fmt.Errorf("loan %s: %w", updated.ID, ErrNotFound)
		}
		if err := validateLoan(s, updated); err != nil {
			return err
		}
		updated.CurrentBalance = s.Loans[i].CurrentBalance
		updated.StartDate = model.DateOf(updated.StartDate)
		s.Loans[i] = updated
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("editing loan: %w", err)
	}
	return state, nil
}

// DeleteLoan removes a loan that has no recorded payments.
func (b *Book) DeleteLoan(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Loans, id, loanID)
		if i < 0 {
			return fmt.Errorf("loan %s: %w", id, ErrNotFound)
		}
		for _, t := range s.Transactions {
			if t.LoanID == id {
				return fmt.Errorf("%w: loan %q has recorded payments", ErrInUse, s.Loans[i].Name)
			}
		}
		s.Loans = append(s.Loans[:i], s.Loans[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting loan: %w", err)
	}
	return state, nil
}

// LoanPayment is the outcome of a loan payment.
type LoanPayment struct {
	Transaction model.Transaction
	Interest    decimal.Decimal
	Principal   decimal.Decimal
}

// PayLoan pays amount toward a loan from an account. Interest for the month
// is charged on the outstanding balance and the rest reduces principal. An
// empty account id falls back to the loan's linked account.
func (b *Book) PayLoan(id string, amount decimal.Decimal, fromAccountID string) (LoanPayment, *State, error) {
	var payment LoanPayment
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Loans, id, loanID)
		if i < 0 {
			return fmt.Errorf("loan %s: %w", id, ErrNotFound)
		}
		loan := s.Loans[i]
		if fromAccountID == "" {
			fromAccountID = loan.LinkedAccountID
		}
		interest, principal := loan.SplitPayment(amount)
		if principal.IsNegative() {
			return fmt.Errorf("%w: payment of %s does not cover %s interest", ErrInvalid, amount.StringFixed(2), interest.StringFixed(2))
		}
		if principal.GreaterThan(loan.CurrentBalance) {
			return fmt.Errorf("%w: payment exceeds the outstanding balance of %s", ErrInvalid, loan.CurrentBalance.Add(interest).StringFixed(2))
		}

		t, err := b.insertTransaction(s, model.Transaction{
			Description: "Payment for " + loan.Name,
			Amount:      amount,
			Type:        model.TransactionExpense,
			CategoryID:  model.CategoryLoanID,
			AccountID:   fromAccountID,
			LoanID:      loan.ID,
			Date:        b.clock(),
		})
		if err != nil {
			return err
		}
		loan.CurrentBalance = loan.CurrentBalance.Sub(principal)
		s.Loans[i] = loan
		payment = LoanPayment{Transaction: t, Interest: interest, Principal: principal}
		return nil
	})
	if err != nil {
		return LoanPayment{}, state, fmt.Errorf("paying loan: %w", err)
	}
	return payment, state, nil
}
