package metrics

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientHistory is returned when there are too few months to fit
// a trend.
var ErrInsufficientHistory = errors.New("at least two months of history are needed")

// ProjectedMonth is a forecast month.
type ProjectedMonth struct {
	Month   time.Time       `json:"month"`
	Net     decimal.Decimal `json:"net"`
	Balance decimal.Decimal `json:"balance"`
}

// Projection is a least-squares trend over monthly net flow.
type Projection struct {
	Months []ProjectedMonth `json:"months"`
	// Intercept and Slope describe net flow as a function of month index.
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	R2        float64 `json:"r2"`
}

// Project fits a line through the net flow of history and extends it
// horizon months past the last month, accumulating from balance.
func Project(history []MonthTotal, balance decimal.Decimal, horizon int) (Projection, error) {
	if len(history) < 2 {
		return Projection{}, ErrInsufficientHistory
	}
	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, m := range history {
		xs[i] = float64(i)
		ys[i] = m.Net().InexactFloat64()
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	p := Projection{
		Intercept: alpha,
		Slope:     beta,
		R2:        stat.RSquared(xs, ys, nil, alpha, beta),
	}

	if math.IsNaN(p.R2) {
		p.R2 = 0
	}

	last := history[len(history)-1].Month
	running := balance
	for i := 1; i <= horizon; i++ {
		x := float64(len(history) - 1 + i)
		net := decimal.NewFromFloat(alpha + beta*x).Round(2)
		running = running.Add(net)
		p.Months = append(p.Months, ProjectedMonth{
			Month:   last.AddDate(0, i, 0),
			Net:     net,
			Balance: running,
		})
	}
	return p, nil
}
