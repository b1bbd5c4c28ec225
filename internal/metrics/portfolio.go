// Package metrics derives read-only figures from a ledger snapshot: totals,
// monthly series, portfolio value, financial health and debt payoff plans.
// Every function is pure over its inputs.
package metrics

import (
	"hash/fnv"
	"strings"

	"github.com/Veraticus/zenith/internal/model"
	"github.com/shopspring/decimal"
)

// PriceSource quotes a ticker.
type PriceSource interface {
	Price(ticker string) (decimal.Decimal, bool)
}

// MockPrices derives a stable pseudo price from the ticker text. It stands
// in for a quote feed: the base is the byte sum mod 300 plus 50, nudged by
// up to five percent either way.
type MockPrices struct{}

// Price implements PriceSource.
func (MockPrices) Price(ticker string) (decimal.Decimal, bool) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return decimal.Zero, false
	}
	sum := 0
	for i := 0; i < len(ticker); i++ {
		sum += int(ticker[i])
	}
	base := decimal.NewFromInt(int64(sum%300 + 50))

	h := fnv.New32a()
	_, _ = h.Write([]byte(ticker))
	// map the hash onto [-500, 500) basis points
	bps := int64(h.Sum32()%1000) - 500
	factor := decimal.NewFromInt(1).Add(decimal.New(bps, -4))
	return base.Mul(factor).Round(2), true
}

// HoldingValue is a holding with its derived market value.
type HoldingValue struct {
	model.InvestmentHolding
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	CurrentValue decimal.Decimal `json:"currentValue"`
	GainLoss     decimal.Decimal `json:"gainLoss"`
}

// Portfolio is the valuation of every holding.
type Portfolio struct {
	Holdings      []HoldingValue  `json:"holdings"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	TotalCost     decimal.Decimal `json:"totalCost"`
	TotalGainLoss decimal.Decimal `json:"totalGainLoss"`
}

// Value prices holdings. A holding without a quote is valued at its cost.
func Value(holdings []model.InvestmentHolding, prices PriceSource) Portfolio {
	if prices == nil {
		prices = MockPrices{}
	}
	p := Portfolio{Holdings: make([]HoldingValue, 0, len(holdings))}
	for _, h := range holdings {
		price, ok := prices.Price(h.Ticker)
		if !ok {
			price = h.AvgCost
		}
		value := h.Quantity.Mul(price)
		cost := h.CostBasis()
		p.Holdings = append(p.Holdings, HoldingValue{
			InvestmentHolding: h,
			CurrentPrice:      price,
			CurrentValue:      value,
			GainLoss:          value.Sub(cost),
		})
		p.TotalValue = p.TotalValue.Add(value)
		p.TotalCost = p.TotalCost.Add(cost)
	}
	p.TotalGainLoss = p.TotalValue.Sub(p.TotalCost)
	return p
}
