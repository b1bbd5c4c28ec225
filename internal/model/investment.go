package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HoldingType classifies an investment holding.
type HoldingType string

// Holding type constants.
const (
	HoldingStock      HoldingType = "Stock"
	HoldingETF        HoldingType = "ETF"
	HoldingCrypto     HoldingType = "Crypto"
	HoldingMutualFund HoldingType = "Mutual Fund"
)

// ParseHoldingType resolves user input such as "etf".
func ParseHoldingType(s string) (HoldingType, error) {
	switch normalizeKey(s) {
	case "stock", "":
		return HoldingStock, nil
	case "etf":
		return HoldingETF, nil
	case "crypto":
		return HoldingCrypto, nil
	case "mutualfund", "fund":
		return HoldingMutualFund, nil
	}
	return "", fmt.Errorf("unknown holding type %q", s)
}

// InvestmentHolding is a position held in an Investment account.
// Current value and gain/loss are derived, never stored.
type InvestmentHolding struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId"`
	Name      string          `json:"name"`
	Ticker    string          `json:"ticker"`
	Type      HoldingType     `json:"type"`
	Quantity  decimal.Decimal `json:"quantity"`
	AvgCost   decimal.Decimal `json:"avgCost"`
}

// CostBasis returns quantity times average cost.
func (h InvestmentHolding) CostBasis() decimal.Decimal {
	return h.Quantity.Mul(h.AvgCost)
}
