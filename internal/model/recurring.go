package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is how often a recurring rule fires.
type Frequency string

// Frequency constants.
const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

// ParseFrequency resolves user input such as "weekly".
func ParseFrequency(s string) (Frequency, error) {
	switch normalizeKey(s) {
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// RecurringTransaction is a template that generates transactions on a cadence.
// LastProcessedDate is the last due date already materialized.
type RecurringTransaction struct {
	StartDate         time.Time       `json:"startDate"`
	LastProcessedDate time.Time       `json:"lastProcessedDate"`
	ID                string          `json:"id"`
	Description       string          `json:"description"`
	Type              TransactionType `json:"type"`
	CategoryID        string          `json:"categoryId,omitempty"`
	Frequency         Frequency       `json:"frequency"`
	AccountID         string          `json:"accountId"`
	Amount            decimal.Decimal `json:"amount"`
}
