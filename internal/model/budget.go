package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending cap for one category.
// Spending against it is derived from transactions, never stored.
type Budget struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
}

// Goal is a savings target funded by contributions.
type Goal struct {
	TargetDate    time.Time       `json:"targetDate"`
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
}

// Reached reports whether the goal's target has been met.
func (g Goal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Progress returns the fraction of the target saved, capped at 1.
func (g Goal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	p := g.CurrentAmount.Div(g.TargetAmount).InexactFloat64()
	if p > 1 {
		return 1
	}
	return p
}
