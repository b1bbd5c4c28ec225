package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanType classifies a loan.
type LoanType string

// Loan type constants.
const (
	LoanMortgage LoanType = "Mortgage"
	LoanAuto     LoanType = "Auto"
	LoanStudent  LoanType = "Student"
	LoanPersonal LoanType = "Personal"
	LoanOther    LoanType = "Other"
)

// ParseLoanType resolves user input such as "mortgage".
func ParseLoanType(s string) (LoanType, error) {
	switch normalizeKey(s) {
	case "mortgage":
		return LoanMortgage, nil
	case "auto", "car":
		return LoanAuto, nil
	case "student":
		return LoanStudent, nil
	case "personal":
		return LoanPersonal, nil
	case "other", "":
		return LoanOther, nil
	}
	return "", fmt.Errorf("unknown loan type %q", s)
}

// Loan is an amortizing debt. CurrentBalance shrinks by the principal part
// of each payment.
type Loan struct {
	StartDate         time.Time       `json:"startDate"`
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Type              LoanType        `json:"type"`
	LinkedAccountID   string          `json:"linkedAccountId,omitempty"`
	OriginalPrincipal decimal.Decimal `json:"originalPrincipal"`
	CurrentBalance    decimal.Decimal `json:"currentBalance"`
	InterestRate      decimal.Decimal `json:"interestRate"`
	MonthlyPayment    decimal.Decimal `json:"monthlyPayment"`
	TermInMonths      int             `json:"termInMonths"`
}

var monthsPerYear = decimal.NewFromInt(12)

// MonthlyRate converts an APR percentage to a monthly fraction.
func MonthlyRate(apr decimal.Decimal) decimal.Decimal {
	return apr.Div(decimal.NewFromInt(100)).Div(monthsPerYear)
}

// SplitPayment divides a payment into interest and principal at the
// loan's current balance.
func (l Loan) SplitPayment(payment decimal.Decimal) (interest, principal decimal.Decimal) {
	interest = l.CurrentBalance.Mul(MonthlyRate(l.InterestRate)).Round(2)
	return interest, payment.Sub(interest)
}
