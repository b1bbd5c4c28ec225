package recurrence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/zenith/internal/model"
)

// DefaultMaxOccurrences bounds a single catch-up run per rule: ten years of
// daily occurrences. A rule that is further behind resumes on the next run.
const DefaultMaxOccurrences = 3660

// Processor walks recurring rules forward to today.
type Processor struct {
	logger         *slog.Logger
	MaxOccurrences int
}

// NewProcessor creates a processor with the default horizon.
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		MaxOccurrences: DefaultMaxOccurrences,
		logger:         logger.With("component", "recurrence"),
	}
}

// Result is the outcome of a catch-up run.
type Result struct {
	Rules        []model.RecurringTransaction
	Transactions []model.Transaction
	Truncated    []string
}

// OccurrenceID is the deterministic id of a rule's occurrence on due.
func OccurrenceID(ruleID string, due time.Time) string {
	return fmt.Sprintf("recurring-%s-%d", ruleID, model.DateOf(due).UnixMilli())
}

// CatchUp materializes every occurrence due on or before today. The input
// rules are not modified; the returned rules carry the advanced
// LastProcessedDate. Running it twice with the same today yields no new
// transactions.
func (p *Processor) CatchUp(rules []model.RecurringTransaction, today time.Time) (Result, error) {
	today = model.DateOf(today)
	limit := p.MaxOccurrences
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}

	result := Result{Rules: make([]model.RecurringTransaction, len(rules))}
	copy(result.Rules, rules)

	for i := range result.Rules {
		rule := &result.Rules[i]
		stepper, err := StepperFor(rule.Frequency)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.ID, err)
		}

		next, err := NextDueDate(*rule)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.ID, err)
		}

		start := model.DateOf(rule.StartDate)
		emitted := 0
		for !next.After(today) {
			if emitted == limit {
				result.Truncated = append(result.Truncated, rule.ID)
				p.logger.Warn("recurring rule catch-up truncated",
					"rule", rule.ID,
					"max_occurrences", limit,
					"resume_from", next.Format(model.DateLayout))
				break
			}

			result.Transactions = append(result.Transactions, model.Transaction{
				ID:          OccurrenceID(rule.ID, next),
				Description: rule.Description,
				Amount:      rule.Amount,
				Type:        rule.Type,
				CategoryID:  rule.CategoryID,
				Date:        next,
				AccountID:   rule.AccountID,
			})
			rule.LastProcessedDate = next
			next = stepper.Next(next, start)
			emitted++
		}
	}

	if len(result.Transactions) > 0 {
		p.logger.Debug("recurring catch-up materialized transactions",
			"count", len(result.Transactions),
			"today", today.Format(model.DateLayout))
	}

	return result, nil
}
