// Package journal persists settled trades and capital snapshots.
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is written once per trade reaching a terminal state.
type TradeRecord struct {
	TradeID          string
	Symbol           string
	Side             string
	Status           string
	Leverage         int
	Quantity         decimal.Decimal
	FilledQuantity   decimal.Decimal
	FillPrice        decimal.Decimal
	Fees             decimal.Decimal
	RealizedPnL      decimal.Decimal
	AllocatedCapital decimal.Decimal
	CreatedAt        time.Time
	SettledAt        time.Time
}

// CapitalSnapshot is written after each settlement.
type CapitalSnapshot struct {
	Time        time.Time
	Total       decimal.Decimal
	Available   decimal.Decimal
	Reserved    decimal.Decimal
	TotalProfit decimal.Decimal
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordCapital(CapitalSnapshot) error
	Close() error
}

// Nop discards everything; used when journaling is disabled.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error       { return nil }
func (Nop) RecordCapital(CapitalSnapshot) error { return nil }
func (Nop) Close() error                        { return nil }
