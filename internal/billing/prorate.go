package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrOpenPeriod       = errors.New("billing: period is still open")
	ErrNegativeDuration = errors.New("billing: period ends before it starts")
)

var nominalMonth = decimal.NewFromInt(NominalMonthDays)

// Prorate returns Σ(days × price) / 30 over closed periods. The result is not
// rounded. An empty timeline costs nothing.
func Prorate(periods []Period) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, p := range periods {
		if p.Open() {
			return decimal.Zero, fmt.Errorf("period %d (%s from %s): %w", i, p.Kind, p.Start.Format("2006-01-02"), ErrOpenPeriod)
		}
		if p.End.Before(p.Start) {
			return decimal.Zero, fmt.Errorf("period %d (%s from %s): %w", i, p.Kind, p.Start.Format("2006-01-02"), ErrNegativeDuration)
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Days()))))
	}
	return total.Div(nominalMonth), nil
}
