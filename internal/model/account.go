// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountType identifies what an account holds.
type AccountType string

// Account type constants.
const (
	AccountChecking   AccountType = "Checking"
	AccountSavings    AccountType = "Savings"
	AccountCreditCard AccountType = "Credit Card"
	AccountCash       AccountType = "Cash"
	AccountInvestment AccountType = "Investment"
)

// AccountTypes lists every supported account type in display order.
var AccountTypes = []AccountType{
	AccountChecking,
	AccountSavings,
	AccountCreditCard,
	AccountCash,
	AccountInvestment,
}

// ParseAccountType resolves user input such as "credit-card" or "savings".
func ParseAccountType(s string) (AccountType, error) {
	switch normalizeKey(s) {
	case "checking":
		return AccountChecking, nil
	case "savings":
		return AccountSavings, nil
	case "creditcard", "credit", "cc":
		return AccountCreditCard, nil
	case "cash":
		return AccountCash, nil
	case "investment", "brokerage":
		return AccountInvestment, nil
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

// Valid reports whether t is one of the supported account types.
func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Kind returns the balance strategy for the account type.
func (t AccountType) Kind() Kind {
	if t == AccountCreditCard {
		return Liability
	}
	return Asset
}

// Account is a place money lives or is owed.
// For asset accounts Balance is owned funds; for liability accounts it is debt.
// Investment accounts are valued through their holdings instead.
type Account struct {
	InterestRate *decimal.Decimal `json:"interestRate,omitempty"`
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         AccountType      `json:"type"`
	Balance      decimal.Decimal  `json:"balance"`
}

// Kind returns the account's balance strategy.
func (a Account) Kind() Kind {
	return a.Type.Kind()
}

// APR returns the interest rate or zero when none is set.
func (a Account) APR() decimal.Decimal {
	if a.InterestRate == nil {
		return decimal.Zero
	}
	return *a.InterestRate
}
