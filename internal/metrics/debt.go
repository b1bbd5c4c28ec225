package metrics

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Veraticus/zenith/internal/ledger"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

// MaxPayoffMonths bounds a payoff simulation to thirty years.
const MaxPayoffMonths = 360

// Debt planning errors.
var (
	ErrNoDebt          = errors.New("no credit card debt to plan")
	ErrMissingInterest = errors.New("all debt accounts must have an interest rate greater than 0%")
	ErrUnknownStrategy = errors.New("unknown payoff strategy")
)

// Strategy orders debts for extra payments.
type Strategy string

// Payoff strategies.
const (
	// Avalanche pays the highest APR first.
	Avalanche Strategy = "avalanche"
	// Snowball pays the smallest balance first.
	Snowball Strategy = "snowball"
)

// MinPaymentPolicy is the card minimum: the larger of Floor and Rate of the
// balance plus the month's interest.
type MinPaymentPolicy struct {
	Floor decimal.Decimal `mapstructure:"min_payment_floor"`
	Rate  decimal.Decimal `mapstructure:"min_payment_rate"`
}

// DefaultMinPaymentPolicy returns a $25 floor and a 1% rate.
func DefaultMinPaymentPolicy() MinPaymentPolicy {
	return MinPaymentPolicy{Floor: decimal.NewFromInt(25), Rate: decimal.RequireFromString("0.01")}
}

// Payment is one account's activity in a simulated month.
type Payment struct {
	AccountID        string          `json:"accountId"`
	AccountName      string          `json:"accountName"`
	Payment          decimal.Decimal `json:"payment"`
	InterestPaid     decimal.Decimal `json:"interestPaid"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// PlanMonth is one simulated month.
type PlanMonth struct {
	Date               time.Time       `json:"date"`
	Payments           []Payment       `json:"payments"`
	Month              int             `json:"month"`
	TotalRemainingDebt decimal.Decimal `json:"totalRemainingDebt"`
}

// DebtPlan is a payoff simulation with its no-extra-payment baseline.
type DebtPlan struct {
	PayoffDate       time.Time       `json:"payoffDate"`
	Strategy         Strategy        `json:"strategy"`
	Schedule         []PlanMonth     `json:"schedule"`
	TotalInterest    decimal.Decimal `json:"totalInterestPaid"`
	BaselineInterest decimal.Decimal `json:"baselineInterest"`
	TotalMonths      int             `json:"totalMonths"`
	BaselineMonths   int             `json:"baselineMonths"`
	// Capped is set when the plan hit MaxPayoffMonths with debt left.
	Capped bool `json:"capped"`
}

// InterestSaved is baseline interest minus planned interest.
func (p DebtPlan) InterestSaved() decimal.Decimal {
	return p.BaselineInterest.Sub(p.TotalInterest)
}

// MonthsSaved is baseline months minus planned months.
func (p DebtPlan) MonthsSaved() int {
	return p.BaselineMonths - p.TotalMonths
}

// DebtAccounts returns the credit cards carrying a balance.
func DebtAccounts(s *ledger.State) []model.Account {
	var out []model.Account
	for _, a := range s.Accounts {
		if a.Type == model.AccountCreditCard && a.Balance.IsPositive() {
			out = append(out, a)
		}
	}
	return out
}

type simDebt struct {
	id      string
	name    string
	apr     decimal.Decimal
	balance decimal.Decimal
}

// PlanDebt simulates paying off every card in s with extra on top of the
// minimums each month, starting the month after now.
func PlanDebt(s *ledger.State, strategy Strategy, extra decimal.Decimal, policy MinPaymentPolicy, now time.Time) (DebtPlan, error) {
	if strategy != Avalanche && strategy != Snowball {
		return DebtPlan{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if extra.IsNegative() {
		extra = decimal.Zero
	}
	accounts := DebtAccounts(s)
	if len(accounts) == 0 {
		return DebtPlan{}, ErrNoDebt
	}
	for _, a := range accounts {
		if !a.APR().IsPositive() {
			return DebtPlan{}, fmt.Errorf("%w: %s", ErrMissingInterest, a.Name)
		}
	}

	plan := simulate(accounts, strategy, extra, policy, now, true)
	baseline := simulate(accounts, strategy, decimal.Zero, policy, now, false)
	plan.BaselineInterest = baseline.TotalInterest
	plan.BaselineMonths = baseline.TotalMonths
	return plan, nil
}

func simulate(accounts []model.Account, strategy Strategy, extra decimal.Decimal, policy MinPaymentPolicy, now time.Time, keepSchedule bool) DebtPlan {
	debts := make([]*simDebt, 0, len(accounts))
	for _, a := range accounts {
		debts = append(debts, &simDebt{id: a.ID, name: a.Name, apr: a.APR(), balance: a.Balance})
	}
	owing := func() bool {
		return slices.ContainsFunc(debts, func(d *simDebt) bool { return d.balance.IsPositive() })
	}

	plan := DebtPlan{Strategy: strategy}
	start := model.StartOfMonth(now)
	for owing() && plan.TotalMonths < MaxPayoffMonths {
		plan.TotalMonths++

		slices.SortStableFunc(debts, func(a, b *simDebt) int {
			if strategy == Avalanche {
				return b.apr.Cmp(a.apr)
			}
			return a.balance.Cmp(b.balance)
		})

		month := PlanMonth{Month: plan.TotalMonths, Date: start.AddDate(0, plan.TotalMonths, 0)}
		payments := map[string]*Payment{}
		minimums := map[string]decimal.Decimal{}

		for _, d := range debts {
			if !d.balance.IsPositive() {
				continue
			}
			interest := d.balance.Mul(model.MonthlyRate(d.apr)).Round(2)
			d.balance = d.balance.Add(interest)
			plan.TotalInterest = plan.TotalInterest.Add(interest)
			minimums[d.id] = decimal.Max(policy.Floor, d.balance.Mul(policy.Rate).Add(interest))
			month.Payments = append(month.Payments, Payment{AccountID: d.id, AccountName: d.name, InterestPaid: interest})
		}
		for i := range month.Payments {
			payments[month.Payments[i].AccountID] = &month.Payments[i]
		}

		for _, d := range debts {
			if !d.balance.IsPositive() {
				continue
			}
			pay := decimal.Min(minimums[d.id], d.balance)
			d.balance = d.balance.Sub(pay)
			payments[d.id].Payment = payments[d.id].Payment.Add(pay)
		}

		remaining := extra
		for _, d := range debts {
			if !remaining.IsPositive() {
				break
			}
			if !d.balance.IsPositive() {
				continue
			}
			pay := decimal.Min(remaining, d.balance)
			d.balance = d.balance.Sub(pay)
			remaining = remaining.Sub(pay)
			payments[d.id].Payment = payments[d.id].Payment.Add(pay)
		}

		for _, d := range debts {
			month.TotalRemainingDebt = month.TotalRemainingDebt.Add(d.balance)
			if p, ok := payments[d.id]; ok {
				p.RemainingBalance = d.balance
			}
		}
		if keepSchedule {
			plan.Schedule = append(plan.Schedule, month)
		}
	}

	plan.Capped = owing()
	plan.PayoffDate = start.AddDate(0, plan.TotalMonths, 0)
	return plan
}
