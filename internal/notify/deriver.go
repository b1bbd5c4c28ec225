// Package notify synthesizes alerts from a ledger snapshot and keeps the
// user's inbox of them.
package notify

import (
	"fmt"
	"time"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/metrics"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/recurrence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Alert thresholds.
const (
	// BudgetAlertPercent is the share of a budget that triggers an alert.
	BudgetAlertPercent = 90
	// LeadDays is how far ahead upcoming payments are announced.
	LeadDays = 3
	// HealthRelatedID scopes the monthly low-health alert.
	HealthRelatedID = "health-score-low"
)

// Deriver builds notifications. The zero value is not usable; use
// NewDeriver.
type Deriver struct {
	newID  func() string
	policy metrics.HealthPolicy
}

// NewDeriver creates a deriver scoring health with policy.
func NewDeriver(policy metrics.HealthPolicy) *Deriver {
	return &Deriver{newID: uuid.NewString, policy: policy}
}

// dedup answers whether an alert was already raised.
type dedup struct {
	existing []model.Notification
	now      time.Time
}

func (d dedup) any(relatedID string) bool {
	for _, n := range d.existing {
		if n.RelatedID == relatedID {
			return true
		}
	}
	return false
}

func (d dedup) thisMonth(relatedID string, typ model.NotificationType) bool {
	for _, n := range d.existing {
		if n.RelatedID == relatedID && n.Type == typ && model.SameMonth(n.Date, d.now) {
			return true
		}
	}
	return false
}

func dueIn(days int) string {
	if days == 0 {
		return "is due today"
	}
	return fmt.Sprintf("is due in %d day(s)", days)
}

func daysBetween(from, to time.Time) int {
	return int(model.DateOf(to).Sub(model.DateOf(from)).Hours() / 24)
}

// Derive returns the notifications s warrants at now that are not already
// in existing. Each alert is raised once per entity and occurrence.
func (d *Deriver) Derive(s *ledger.State, existing []model.Notification, now time.Time) []model.Notification {
	seen := dedup{existing: existing, now: now}
	var out []model.Notification
	emit := func(typ model.NotificationType, relatedID, msg string) {
		n := model.Notification{
			ID:        d.newID(),
			Type:      typ,
			Message:   msg,
			Date:      now,
			RelatedID: relatedID,
		}
		out = append(out, n)
		seen.existing = append(seen.existing, n)
	}

	for _, st := range metrics.Budgets(s, now) {
		if !st.Amount.IsPositive() {
			continue
		}
		pct := st.Spent.Div(st.Amount).Mul(decimal.NewFromInt(100))
		if pct.LessThan(decimal.NewFromInt(BudgetAlertPercent)) || seen.thisMonth(st.ID, model.NotificationBudget) {
			continue
		}
		name := st.CategoryName
		if name == "" {
			name = "A category"
		}
		emit(model.NotificationBudget, st.ID,
			fmt.Sprintf("You've spent %s%% of your '%s' budget for this month.", pct.Round(0).String(), name))
	}

	for _, g := range s.Goals {
		if g.Reached() && !seen.any(g.ID) {
			emit(model.NotificationGoal, g.ID,
				fmt.Sprintf("Congratulations! You've reached your '%s' goal!", g.Name))
		}
	}

	for _, r := range s.Recurring {
		due, err := recurrence.NextDueDate(r)
		if err != nil {
			continue
		}
		days := daysBetween(now, due)
		related := r.ID + "-" + due.Format(model.DateLayout)
		if days < 0 || days > LeadDays || seen.any(related) {
			continue
		}
		emit(model.NotificationRecurring, related,
			fmt.Sprintf("Your '%s' payment of %s %s.", r.Description, model.FormatUSD(r.Amount), dueIn(days)))
	}

	for _, b := range s.Bills {
		if b.PaidIn(now) {
			continue
		}
		due := b.DueDate(now)
		related := b.ID + "-" + due.Format(model.DateLayout)
		if seen.any(related) {
			continue
		}
		switch days := daysBetween(now, due); {
		case days < 0:
			emit(model.NotificationBill, related,
				fmt.Sprintf("Your '%s' bill was due on %s.", b.Name, due.Format("1/2/2006")))
		case days <= LeadDays:
			emit(model.NotificationBill, related,
				fmt.Sprintf("Your '%s' bill of %s %s.", b.Name, model.FormatUSD(b.Amount), dueIn(days)))
		}
	}

	for _, l := range s.Loans {
		if !l.MonthlyPayment.IsPositive() || !l.CurrentBalance.IsPositive() || loanPaidIn(s, l.ID, now) {
			continue
		}
		due := model.Bill{DueDay: l.StartDate.Day()}.DueDate(now)
		related := l.ID + "-" + due.Format(model.DateLayout)
		days := daysBetween(now, due)
		if days < 0 || days > LeadDays || seen.any(related) {
			continue
		}
		emit(model.NotificationLoan, related,
			fmt.Sprintf("Your '%s' loan payment of %s %s.", l.Name, model.FormatUSD(l.MonthlyPayment), dueIn(days)))
	}

	if h := metrics.ScoreHealth(s, now, d.policy); h.Low(d.policy) && !seen.thisMonth(HealthRelatedID, model.NotificationHealth) {
		emit(model.NotificationHealth, HealthRelatedID,
			fmt.Sprintf("Your financial health score is %d. Check the report for tips on how to improve it.", h.Overall))
	}

	return out
}

func loanPaidIn(s *ledger.State, loanID string, now time.Time) bool {
	for _, t := range s.Transactions {
		if t.LoanID == loanID && model.SameMonth(t.Date, now) {
			return true
		}
	}
	return false
}
