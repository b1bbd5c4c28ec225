package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
)

// Tier awards Points when a metric clears Threshold.
type Tier struct {
	Threshold float64 `mapstructure:"threshold" json:"threshold"`
	Points    int     `mapstructure:"points" json:"points"`
}

// HealthPolicy holds the scoring thresholds. Tiers are checked in order
// and the first match wins.
type HealthPolicy struct {
	// SavingsRate tiers match when the rate (percent) is at least Threshold.
	SavingsRate []Tier `mapstructure:"savings_rate"`
	// DebtToIncome tiers match when DTI (percent) is at most Threshold.
	DebtToIncome []Tier `mapstructure:"debt_to_income"`
	// EmergencyFund tiers match when months covered is at least Threshold.
	EmergencyFund []Tier `mapstructure:"emergency_fund"`
	// BudgetOverrun tiers match when average spend/cap exceeds Threshold.
	BudgetOverrun []Tier `mapstructure:"budget_overrun"`
	// CardBurden tiers match when card debt/liquid exceeds Threshold.
	CardBurden []Tier `mapstructure:"card_burden"`

	WindowMonths      int     `mapstructure:"window_months"`
	CardMinPaymentPct float64 `mapstructure:"card_min_payment_pct"`
	BudgetMax         int     `mapstructure:"budget_max"`
	CardBurdenMax     int     `mapstructure:"card_burden_max"`
	LowScore          int     `mapstructure:"low_score"`
}

// DefaultHealthPolicy returns the standard scoring.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{
		SavingsRate:       []Tier{{20, 30}, {10, 20}, {0, 10}},
		DebtToIncome:      []Tier{{15, 25}, {30, 15}, {43, 5}},
		EmergencyFund:     []Tier{{6, 25}, {3, 15}, {1, 5}},
		BudgetOverrun:     []Tier{{1.2, 0}, {1.05, 5}},
		CardBurden:        []Tier{{0.5, 0}, {0.2, 5}},
		WindowMonths:      3,
		CardMinPaymentPct: 2,
		BudgetMax:         10,
		CardBurdenMax:     10,
		LowScore:          50,
	}
}

// ErrInvalidPolicy reports a health policy that could score outside its bounds.
var ErrInvalidPolicy = errors.New("invalid health policy")

// Validate rejects negative weights and overrun tiers worth more than their
// metric's maximum.
func (p HealthPolicy) Validate() error {
	for name, tiers := range map[string][]Tier{
		"savings_rate":   p.SavingsRate,
		"debt_to_income": p.DebtToIncome,
		"emergency_fund": p.EmergencyFund,
	} {
		if err := checkTiers(name, tiers, -1); err != nil {
			return err
		}
	}
	if p.BudgetMax < 0 || p.CardBurdenMax < 0 {
		return fmt.Errorf("%w: budget_max and card_burden_max cannot be negative", ErrInvalidPolicy)
	}
	if err := checkTiers("budget_overrun", p.BudgetOverrun, p.BudgetMax); err != nil {
		return err
	}
	if err := checkTiers("card_burden", p.CardBurden, p.CardBurdenMax); err != nil {
		return err
	}
	if p.WindowMonths < 0 {
		return fmt.Errorf("%w: window_months cannot be negative", ErrInvalidPolicy)
	}
	return nil
}

// checkTiers fails on negative points, or points above limit when limit is
// not negative.
func checkTiers(name string, tiers []Tier, limit int) error {
	for _, t := range tiers {
		if t.Points < 0 {
			return fmt.Errorf("%w: %s points cannot be negative", ErrInvalidPolicy, name)
		}
		if limit >= 0 && t.Points > limit {
			return fmt.Errorf("%w: %s awards %d points but its maximum is %d", ErrInvalidPolicy, name, t.Points, limit)
		}
	}
	return nil
}

// MaxScore is the sum of every sub-score's weight.
func (p HealthPolicy) MaxScore() int {
	return maxPoints(p.SavingsRate) + maxPoints(p.DebtToIncome) + maxPoints(p.EmergencyFund) + p.BudgetMax + p.CardBurdenMax
}

func maxPoints(tiers []Tier) int {
	best := 0
	for _, t := range tiers {
		if t.Points > best {
			best = t.Points
		}
	}
	return best
}

func atLeast(tiers []Tier, v float64) int {
	for _, t := range tiers {
		if v >= t.Threshold {
			return t.Points
		}
	}
	return 0
}

func atMost(tiers []Tier, v float64) int {
	for _, t := range tiers {
		if v <= t.Threshold {
			return t.Points
		}
	}
	return 0
}

func above(tiers []Tier, v float64, otherwise int) int {
	for _, t := range tiers {
		if v > t.Threshold {
			return t.Points
		}
	}
	return otherwise
}

// clamp keeps Score within [0, Max].
func (m Metric) clamp() Metric {
	m.Score = max(0, min(m.Score, m.Max))
	return m
}

// Metric is one scored input of the health score.
type Metric struct {
	Value float64 `json:"value"`
	Score int     `json:"score"`
	Max   int     `json:"max"`
}

// Health is the financial health score and its parts.
type Health struct {
	SavingsRate      Metric `json:"savingsRate"`
	DebtToIncome     Metric `json:"debtToIncomeRatio"`
	EmergencyFund    Metric `json:"emergencyFund"`
	BudgetAdherence  Metric `json:"budgetAdherence"`
	CreditCardBurden Metric `json:"creditCardBurden"`
	Overall          int    `json:"overallScore"`
}

// Low reports whether the overall score is below the policy's alert level.
func (h Health) Low(p HealthPolicy) bool {
	return h.Overall < p.LowScore
}

// ScoreHealth scores the ledger at now. Income and expenses are monthly
// averages over the policy window.
func ScoreHealth(s *ledger.State, now time.Time, p HealthPolicy) Health {
	window := p.WindowMonths
	if window <= 0 {
		window = 3
	}
	in, out := Window(s, now.AddDate(0, -window, 0))
	income := in.InexactFloat64() / float64(window)
	expenses := out.InexactFloat64() / float64(window)

	var cardDebt, liquid, loanPayments float64
	for _, a := range s.Accounts {
		switch a.Type {
		case model.AccountCreditCard:
			cardDebt += a.Balance.InexactFloat64()
		case model.AccountChecking, model.AccountSavings:
			liquid += a.Balance.InexactFloat64()
		}
	}
	for _, l := range s.Loans {
		loanPayments += l.MonthlyPayment.InexactFloat64()
	}

	var h Health

	savingsRate := 0.0
	if income > 0 {
		savingsRate = (income - expenses) / income * 100
	}
	h.SavingsRate = Metric{Value: savingsRate, Score: atLeast(p.SavingsRate, savingsRate), Max: maxPoints(p.SavingsRate)}

	dti := 100.0
	if income > 0 {
		dti = (loanPayments + cardDebt*p.CardMinPaymentPct/100) / income * 100
	}
	h.DebtToIncome = Metric{Value: dti, Score: atMost(p.DebtToIncome, dti), Max: maxPoints(p.DebtToIncome)}

	months := 0.0
	if expenses > 0 {
		months = liquid / expenses
	}
	h.EmergencyFund = Metric{Value: months, Score: atLeast(p.EmergencyFund, months), Max: maxPoints(p.EmergencyFund)}

	h.BudgetAdherence = Metric{Score: p.BudgetMax, Max: p.BudgetMax}
	if statuses := Budgets(s, now); len(statuses) > 0 {
		total := 0.0
		for _, st := range statuses {
			total += st.Ratio
		}
		avg := total / float64(len(statuses))
		h.BudgetAdherence.Value = avg * 100
		h.BudgetAdherence.Score = above(p.BudgetOverrun, avg, p.BudgetMax)
	}

	h.CreditCardBurden = Metric{Score: p.CardBurdenMax, Max: p.CardBurdenMax}
	switch {
	case liquid > 0 && cardDebt > 0:
		ratio := cardDebt / liquid
		h.CreditCardBurden.Value = ratio * 100
		h.CreditCardBurden.Score = above(p.CardBurden, ratio, p.CardBurdenMax)
	case cardDebt > 0:
		h.CreditCardBurden.Score = 0
	}

	for _, m := range []*Metric{&h.SavingsRate, &h.DebtToIncome, &h.EmergencyFund, &h.BudgetAdherence, &h.CreditCardBurden} {
		*m = m.clamp()
	}
	h.Overall = h.SavingsRate.Score + h.DebtToIncome.Score + h.EmergencyFund.Score + h.BudgetAdherence.Score + h.CreditCardBurden.Score
	if maxScore := p.MaxScore(); h.Overall > maxScore {
		h.Overall = maxScore
	}
	if h.Overall < 0 {
		h.Overall = 0
	}
	return h
}
