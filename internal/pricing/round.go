package pricing

import "github.com/shopspring/decimal"

// round2 rounds a monetary value half-up to two decimal places.
// Decimal arithmetic avoids the float drift of naive multiply-and-truncate
// rounding on values like 2.675.
func round2(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}
