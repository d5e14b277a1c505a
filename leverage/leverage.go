// Package leverage maps recent volatility to a bounded leverage value.
package leverage

import "github.com/shopspring/decimal"

// Policy holds the leverage bounds and volatility thresholds for a strategy.
// Select is a pure function of the policy; the same inputs always produce the
// same leverage.
type Policy struct {
	// Base is the per-symbol starting leverage. Symbols not present use
	// DefaultBase.
	Base map[string]int

	DefaultBase int
	Min         int
	Max         int

	// HighVol halves leverage when 24h volatility exceeds it; LowVol scales
	// leverage by 1.5x when volatility is below it. Both are ratios.
	HighVol decimal.Decimal
	LowVol  decimal.Decimal
}

// DefaultPolicy returns conservative bounds: 10x base, clamped to [1,50],
// de-risking above 10% daily moves and adding leverage below 2%.
func DefaultPolicy() Policy {
	return Policy{
		Base: map[string]int{
			"BTCUSDT": 10,
			"ETHUSDT": 10,
			"BNBUSDT": 8,
			"ADAUSDT": 8,
			"DOTUSDT": 8,
			"SOLUSDT": 5,
			"AVAXUSDT": 5,
			"DOGEUSDT": 3,
		},
		DefaultBase: 10,
		Min:         1,
		Max:         50,
		HighVol:     decimal.RequireFromString("0.10"),
		LowVol:      decimal.RequireFromString("0.02"),
	}
}

// Select picks the leverage for symbol given its absolute 24h price change
// ratio. High volatility halves the base (floored at 1); low volatility
// multiplies it by 1.5 (capped at Max); the result is always clamped to
// [Min, Max].
func (p Policy) Select(symbol string, volatility decimal.Decimal) int {
	base := p.DefaultBase
	if b, ok := p.Base[symbol]; ok {
		base = b
	}

	vol := volatility.Abs()
	lev := base
	switch {
	case vol.GreaterThan(p.HighVol):
		lev = base / 2
		if lev < 1 {
			lev = 1
		}
	case vol.LessThan(p.LowVol):
		lev = base * 3 / 2
		if lev > p.Max {
			lev = p.Max
		}
	}

	if lev < p.Min {
		lev = p.Min
	}
	if lev > p.Max {
		lev = p.Max
	}
	return lev
}
