package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is a monthly obligation that is marked paid by hand.
type Bill struct {
	LastPaidDate *time.Time      `json:"lastPaidDate,omitempty"`
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CategoryID   string          `json:"categoryId"`
	AccountID    string          `json:"accountId,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	DueDay       int             `json:"dueDay"`
}

// DueDate returns the bill's due date in the month containing now,
// clamping the due day to the month length.
func (b Bill) DueDate(now time.Time) time.Time {
	day := b.DueDay
	if last := DaysIn(now.Year(), now.Month()); day > last {
		day = last
	}
	return time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC)
}

// PaidIn reports whether the bill was paid in the same month as now.
func (b Bill) PaidIn(now time.Time) bool {
	return b.LastPaidDate != nil && SameMonth(*b.LastPaidDate, now)
}
