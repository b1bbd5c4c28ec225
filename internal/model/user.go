package model

import "time"

// Plan is a user's subscription tier.
type Plan string

// Plan constants.
const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// FreeBudgetLimit is the number of budgets a free plan may hold.
const FreeBudgetLimit = 3

// User is a locally known account holder. Authentication is mocked: the
// email is the identity.
type User struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Plan      Plan      `json:"plan"`
}

// IsPremium reports whether the user is on the premium plan.
func (u User) IsPremium() bool {
	return u.Plan == PlanPremium
}
