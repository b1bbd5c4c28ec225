package ledger

import "errors"

// Ledger errors. Mutations wrap one of these with the offending id or field.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid input")
	ErrInUse             = errors.New("still in use")
	ErrBudgetLimit       = errors.New("budget limit reached for current plan")
	ErrProtectedCategory = errors.New("category cannot be deleted")
)
