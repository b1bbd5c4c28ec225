package ledger

import (
	"fmt"
	"strings"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

// NewAccount describes an account to open.
type NewAccount struct {
	InterestRate   *decimal.Decimal
	Name           string
	Type           model.AccountType
	InitialBalance decimal.Decimal
}

// openingSeed returns the seed transaction that reproduces the account's
// balance when replayed from zero, or false for a zero balance.
func openingSeed(acct model.Account) (model.Transaction, bool) {
	if acct.Balance.IsZero() {
		return model.Transaction{}, false
	}
	// For a liability a positive balance is debt, which expenses build up.
	gain := acct.Balance.IsPositive() != (acct.Kind() == model.Liability)
	typ := model.TransactionExpense
	if gain {
		typ = model.TransactionIncome
	}
	return model.Transaction{
		Description: "Opening Balance for " + acct.Name,
		Amount:      acct.Balance.Abs(),
		Type:        typ,
		AccountID:   acct.ID,
	}, true
}

// savingsCategory is the Savings category id, or empty once the user has
// deleted it.
func savingsCategory(s *State) string {
	if _, ok := s.Category(model.CategorySavingsID); ok {
		return model.CategorySavingsID
	}
	return ""
}

func validateAccount(name string, typ model.AccountType, rate *decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: account name is required", ErrInvalid)
	}
	if !typ.Valid() {
		return fmt.Errorf("%w: account type %q", ErrInvalid, typ)
	}
	if rate != nil && rate.IsNegative() {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalid)
	}
	return nil
}

// AddAccount opens an account. A non-zero starting balance is recorded as
// an opening seed transaction whose effect is already part of the balance.
// Investment accounts are valued through holdings and must start at zero.
func (b *Book) AddAccount(n NewAccount) (model.Account, *State, error) {
	var acct model.Account
	state, err := b.commit(func(s *State) error {
		if err := validateAccount(n.Name, n.Type, n.InterestRate); err != nil {
			return err
		}
		if n.Type == model.AccountInvestment && !n.InitialBalance.IsZero() {
			return fmt.Errorf("%w: investment accounts are valued from their holdings", ErrInvalid)
		}

		acct = model.Account{
			ID:      b.newID(),
			Name:    strings.TrimSpace(n.Name),
			Type:    n.Type,
			Balance: n.InitialBalance,
		}
		if n.Type == model.AccountCreditCard {
			acct.InterestRate = n.InterestRate
		}
		s.Accounts = append(s.Accounts, acct)

		if seed, ok := openingSeed(acct); ok {
			seed.Date = b.clock()
			seed.CategoryID = savingsCategory(s)
			if _, err := b.insertSeed(s, seed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Account{}, state, fmt.Errorf("adding account: %w", err)
	}
	b.logger.Debug("account added", "account", acct.ID, "type", acct.Type)
	return acct, state, nil
}

// EditAccount changes an account's name, type and interest rate. The
// balance is owned by the transactions and is never edited directly.
func (b *Book) EditAccount(updated model.Account) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Accounts, updated.ID, accountID)
		if i < 0 {
			return fmt.Errorf("account %s: %w", updated.ID, ErrNotFound)
		}
		if err := validateAccount(updated.Name, updated.Type, updated.InterestRate); err != nil {
			return err
		}
		cur := s.Accounts[i]
		if cur.Type.Kind() != updated.Type.Kind() && len(accountReferences(s, cur.ID)) > 0 {
			return fmt.Errorf("%w: cannot change %s between asset and liability while it has history", ErrInUse, cur.Name)
		}
		wasInvestment := cur.Type == model.AccountInvestment
		if wasInvestment != (updated.Type == model.AccountInvestment) {
			if !cur.Balance.IsZero() {
				return fmt.Errorf("%w: %s has a balance; investment accounts are valued from their holdings", ErrInUse, cur.Name)
			}
			if len(s.HoldingsIn(cur.ID)) > 0 {
				return fmt.Errorf("%w: %s still has holdings", ErrInUse, cur.Name)
			}
		}
		cur.Name = strings.TrimSpace(updated.Name)
		cur.Type = updated.Type
		cur.InterestRate = nil
		if updated.Type == model.AccountCreditCard {
			cur.InterestRate = updated.InterestRate
		}
		s.Accounts[i] = cur
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("editing account: %w", err)
	}
	return state, nil
}

// accountReferences names the collections that still point at an account.
func accountReferences(s *State, id string) []string {
	var refs []string
	for _, t := range s.Transactions {
		if t.AccountID == id || t.ToAccountID == id {
			refs = append(refs, "transactions")
			break
		}
	}
	for _, r := range s.Recurring {
		if r.AccountID == id {
			refs = append(refs, "recurring transactions")
			break
		}
	}
	for _, h := range s.Holdings {
		if h.AccountID == id {
			refs = append(refs, "investments")
			break
		}
	}
	for _, bill := range s.Bills {
		if bill.AccountID == id {
			refs = append(refs, "bills")
			break
		}
	}
	for _, l := range s.Loans {
		if l.LinkedAccountID == id {
			refs = append(refs, "loans")
			break
		}
	}
	return refs
}

// DeleteAccount removes an account that nothing references any more.
func (b *Book) DeleteAccount(id string) (*State, error) {
	state, err := b.commit(func(s *State) error {
		i := indexOf(s.Accounts, id, accountID)
		if i < 0 {
			return fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		if refs := accountReferences(s, id); len(refs) > 0 {
			return fmt.Errorf("%w: account %q is associated with %s", ErrInUse, s.Accounts[i].Name, strings.Join(refs, ", "))
		}
		s.Accounts = append(s.Accounts[:i], s.Accounts[i+1:]...)
		return nil
	})
	if err != nil {
		return state, fmt.Errorf("deleting account: %w", err)
	}
	return state, nil
}
