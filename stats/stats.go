// Package stats accumulates trading statistics over settled trades.
package stats

import (
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

// Stats is a point-in-time view of the aggregate statistics. Counters are
// monotonic; ratios are derived at snapshot time.
type Stats struct {
	TotalTrades      uint64
	SuccessfulTrades uint64
	FailedTrades     uint64

	TotalVolume        decimal.Decimal
	TotalFees          decimal.Decimal
	TotalRealizedPnL   decimal.Decimal
	TotalUnrealizedPnL decimal.Decimal

	WinRate      float64 // successful / total
	AvgTradeSize decimal.Decimal
	LargestWin   decimal.Decimal
	LargestLoss  decimal.Decimal

	// Drawdown is the negative excursion of cumulative realized P&L from its
	// running peak, reported as a non-negative magnitude.
	CurrentDrawdown decimal.Decimal
	MaxDrawdown     decimal.Decimal

	ProfitFactor float64 // gross wins / |gross losses|
	SharpeRatio  float64 // from the per-trade net P&L distribution

	// CapitalUtilization is filled in by the executor from the ledger.
	CapitalUtilization float64
}

// Aggregator is updated exactly once per trade reaching a terminal state.
type Aggregator struct {
	mu sync.Mutex

	totalTrades      uint64
	successfulTrades uint64
	failedTrades     uint64

	totalVolume    decimal.Decimal
	totalFees      decimal.Decimal
	totalRealized  decimal.Decimal
	unrealized     decimal.Decimal
	largestWin     decimal.Decimal
	largestLoss    decimal.Decimal
	grossWins      decimal.Decimal
	grossLosses    decimal.Decimal
	cumulative     decimal.Decimal
	peak           decimal.Decimal
	maxDrawdown    decimal.Decimal
	returns        []decimal.Decimal
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		totalVolume:   decimal.Zero,
		totalFees:     decimal.Zero,
		totalRealized: decimal.Zero,
		unrealized:    decimal.Zero,
		largestWin:    decimal.Zero,
		largestLoss:   decimal.Zero,
		grossWins:     decimal.Zero,
		grossLosses:   decimal.Zero,
		cumulative:    decimal.Zero,
		peak:          decimal.Zero,
		maxDrawdown:   decimal.Zero,
	}
}

// RecordFill accounts a filled trade: volume is the filled notional, netPnL
// the realized P&L net of fees. A trade counts as successful when its net
// P&L is positive.
func (a *Aggregator) RecordFill(volume, fees, netPnL decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalTrades++
	a.totalVolume = a.totalVolume.Add(volume)
	a.totalFees = a.totalFees.Add(fees)
	a.totalRealized = a.totalRealized.Add(netPnL)
	a.returns = append(a.returns, netPnL)

	if netPnL.Sign() > 0 {
		a.successfulTrades++
		a.grossWins = a.grossWins.Add(netPnL)
		if netPnL.GreaterThan(a.largestWin) {
			a.largestWin = netPnL
		}
	} else {
		a.grossLosses = a.grossLosses.Add(netPnL)
		if netPnL.LessThan(a.largestLoss) {
			a.largestLoss = netPnL
		}
	}

	a.cumulative = a.cumulative.Add(netPnL)
	if a.cumulative.GreaterThan(a.peak) {
		a.peak = a.cumulative
	}
	if dd := a.peak.Sub(a.cumulative); dd.GreaterThan(a.maxDrawdown) {
		a.maxDrawdown = dd
	}
}

// RecordFailure accounts a trade that ended Cancelled, Rejected or Failed.
func (a *Aggregator) RecordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalTrades++
	a.failedTrades++
}

// SetUnrealized replaces the aggregate unrealized P&L, fed by the periodic
// position refresh.
func (a *Aggregator) SetUnrealized(pnl decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unrealized = pnl
}

// Snapshot derives the ratio statistics from the accumulated counters.
func (a *Aggregator) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Stats{
		TotalTrades:        a.totalTrades,
		SuccessfulTrades:   a.successfulTrades,
		FailedTrades:       a.failedTrades,
		TotalVolume:        a.totalVolume,
		TotalFees:          a.totalFees,
		TotalRealizedPnL:   a.totalRealized,
		TotalUnrealizedPnL: a.unrealized,
		AvgTradeSize:       decimal.Zero,
		LargestWin:         a.largestWin,
		LargestLoss:        a.largestLoss,
		CurrentDrawdown:    a.peak.Sub(a.cumulative),
		MaxDrawdown:        a.maxDrawdown,
	}

	if a.totalTrades > 0 {
		s.WinRate = float64(a.successfulTrades) / float64(a.totalTrades)
		s.AvgTradeSize = a.totalVolume.Div(decimal.NewFromUint64(a.totalTrades))
	}
	if a.grossLosses.Sign() < 0 {
		pf, _ := a.grossWins.Div(a.grossLosses.Abs()).Float64()
		s.ProfitFactor = pf
	}
	s.SharpeRatio = sharpe(a.returns)

	return s
}

// sharpe computes mean/stddev over the per-trade net P&L series. It needs at
// least two samples and a nonzero spread.
func sharpe(returns []decimal.Decimal) float64 {
	if len(returns) < 2 {
		return 0
	}

	xs := make([]float64, len(returns))
	var sum float64
	for i, r := range returns {
		x, _ := r.Float64()
		xs[i] = x
		sum += x
	}
	mean := sum / float64(len(xs))

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}
