package recurrence

import (
	"testing"
	"time"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rule(freq model.Frequency, start time.Time) model.RecurringTransaction {
	return model.RecurringTransaction{
		ID:                "rent",
		Description:       "Rent",
		Amount:            decimal.NewFromInt(1200),
		Type:              model.TransactionExpense,
		CategoryID:        "cat-3",
		Frequency:         freq,
		StartDate:         start,
		LastProcessedDate: start.AddDate(0, 0, -1),
		AccountID:         "checking",
	}
}

func TestMonthlyStepperClampsAndReanchors(t *testing.T) {
	start := date(2025, time.January, 31)
	s := MonthlyStepper{}

	feb := s.Next(start, start)
	assert.Equal(t, date(2025, time.February, 28), feb)

	mar := s.Next(feb, start)
	assert.Equal(t, date(2025, time.March, 31), mar)
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name string
		rule model.RecurringTransaction
		want time.Time
	}{
		{
			name: "new rule starts at start date",
			rule: rule(model.FrequencyWeekly, date(2025, time.March, 3)),
			want: date(2025, time.March, 3),
		},
		{
			name: "processed rule steps forward",
			rule: func() model.RecurringTransaction {
				r := rule(model.FrequencyDaily, date(2025, time.March, 3))
				r.LastProcessedDate = date(2025, time.March, 5)
				return r
			}(),
			want: date(2025, time.March, 6),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDueDate(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatchUp(t *testing.T) {
	p := NewProcessor(nil)
	rules := []model.RecurringTransaction{rule(model.FrequencyMonthly, date(2025, time.January, 15))}

	res, err := p.CatchUp(rules, date(2025, time.April, 20))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 4)

	assert.Equal(t, date(2025, time.January, 15), res.Transactions[0].Date)
	assert.Equal(t, date(2025, time.April, 15), res.Transactions[3].Date)
	assert.Equal(t, OccurrenceID("rent", date(2025, time.January, 15)), res.Transactions[0].ID)
	assert.Equal(t, date(2025, time.April, 15), res.Rules[0].LastProcessedDate)

	// input untouched
	assert.Equal(t, date(2025, time.January, 14), rules[0].LastProcessedDate)
}

func TestCatchUpIsIdempotent(t *testing.T) {
	p := NewProcessor(nil)
	today := date(2025, time.March, 10)
	rules := []model.RecurringTransaction{rule(model.FrequencyDaily, date(2025, time.March, 1))}

	first, err := p.CatchUp(rules, today)
	require.NoError(t, err)
	assert.Len(t, first.Transactions, 10)

	second, err := p.CatchUp(first.Rules, today)
	require.NoError(t, err)
	assert.Empty(t, second.Transactions)
}

func TestCatchUpFutureRule(t *testing.T) {
	p := NewProcessor(nil)
	res, err := p.CatchUp([]model.RecurringTransaction{rule(model.FrequencyWeekly, date(2030, time.January, 1))}, date(2025, time.January, 1))
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
}

func TestCatchUpIsBounded(t *testing.T) {
	p := NewProcessor(nil)
	p.MaxOccurrences = 5

	res, err := p.CatchUp([]model.RecurringTransaction{rule(model.FrequencyDaily, date(2025, time.January, 1))}, date(2025, time.December, 31))
	require.NoError(t, err)
	assert.Len(t, res.Transactions, 5)
	assert.Equal(t, []string{"rent"}, res.Truncated)
	assert.Equal(t, date(2025, time.January, 5), res.Rules[0].LastProcessedDate)
}

func TestCatchUpUnknownFrequency(t *testing.T) {
	p := NewProcessor(nil)
	_, err := p.CatchUp([]model.RecurringTransaction{rule("Yearly", date(2025, time.January, 1))}, date(2025, time.February, 1))
	assert.Error(t, err)
}
