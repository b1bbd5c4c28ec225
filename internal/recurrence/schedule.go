// Package recurrence advances recurring rules and materializes the
// transactions they owe.
package recurrence

import (
	"fmt"
	"time"

	"github.com/Veraticus/zenith/internal/model"
)

// Stepper computes the due date that follows from for a rule starting at start.
type Stepper interface {
	Next(from, start time.Time) time.Time
}

// DailyStepper advances one day.
type DailyStepper struct{}

// Next returns the following day.
func (DailyStepper) Next(from, _ time.Time) time.Time {
	return model.DateOf(from).AddDate(0, 0, 1)
}

// WeeklyStepper advances seven days.
type WeeklyStepper struct{}

// Next returns the same weekday one week later.
func (WeeklyStepper) Next(from, _ time.Time) time.Time {
	return model.DateOf(from).AddDate(0, 0, 7)
}

// MonthlyStepper advances one calendar month, keeping the start date's day
// of month and clamping it to shorter months.
type MonthlyStepper struct{}

// Next returns the anchored day in the following month.
func (MonthlyStepper) Next(from, start time.Time) time.Time {
	from = model.DateOf(from)
	first := time.Date(from.Year(), from.Month()+1, 1, 0, 0, 0, 0, time.UTC)

	day := start.Day()
	if start.IsZero() {
		day = from.Day()
	}
	if last := model.DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

var steppers = map[model.Frequency]Stepper{
	model.FrequencyDaily:   DailyStepper{},
	model.FrequencyWeekly:  WeeklyStepper{},
	model.FrequencyMonthly: MonthlyStepper{},
}

// StepperFor returns the stepper registered for a frequency.
func StepperFor(freq model.Frequency) (Stepper, error) {
	s, ok := steppers[freq]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", freq)
	}
	return s, nil
}

// NextDueDate returns the first due date the rule has not yet materialized.
func NextDueDate(rule model.RecurringTransaction) (time.Time, error) {
	stepper, err := StepperFor(rule.Frequency)
	if err != nil {
		return time.Time{}, err
	}

	start := model.DateOf(rule.StartDate)
	last := model.DateOf(rule.LastProcessedDate)
	if rule.LastProcessedDate.IsZero() || last.Before(start) {
		return start, nil
	}
	return stepper.Next(last, start), nil
}
