package model

import "github.com/shopspring/decimal"

// Kind applies income and expense effects to a balance.
// Sign conventions live here and nowhere else.
type Kind interface {
	ApplyIncome(balance, amount decimal.Decimal) decimal.Decimal
	ApplyExpense(balance, amount decimal.Decimal) decimal.Decimal
	String() string
}

// Asset and Liability are the two account kinds.
var (
	Asset     Kind = assetKind{}
	Liability Kind = liabilityKind{}
)

type assetKind struct{}

func (assetKind) ApplyIncome(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Add(amount)
}

func (assetKind) ApplyExpense(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Sub(amount)
}

func (assetKind) String() string { return "asset" }

// liabilityKind tracks owed debt: spending raises it, payments lower it.
type liabilityKind struct{}

func (liabilityKind) ApplyIncome(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Sub(amount)
}

func (liabilityKind) ApplyExpense(balance, amount decimal.Decimal) decimal.Decimal {
	return balance.Add(amount)
}

func (liabilityKind) String() string { return "liability" }

// Apply routes a single-sided effect through the kind.
// Transfers are not single-sided and must be split by the caller.
func Apply(k Kind, balance, amount decimal.Decimal, typ TransactionType) decimal.Decimal {
	switch typ {
	case TransactionIncome:
		return k.ApplyIncome(balance, amount)
	case TransactionExpense:
		return k.ApplyExpense(balance, amount)
	default:
		return balance
	}
}
