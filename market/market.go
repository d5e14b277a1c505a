package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Opposite returns the side that closes a position opened with s.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType distinguishes market from limit orders.
type OrderType int

const (
	Market OrderType = iota
	Limit
)

func (t OrderType) String() string {
	if t == Limit {
		return "LIMIT"
	}
	return "MARKET"
}

// Snapshot is a point-in-time copy of market data for one symbol.
// Trades embed a Snapshot taken at decision time; it is never updated
// afterwards, so the decision record stays immutable.
type Snapshot struct {
	Symbol         string
	Price          decimal.Decimal
	Bid            decimal.Decimal
	Ask            decimal.Decimal
	Volume24h      decimal.Decimal
	PriceChange24h decimal.Decimal // 24h change as a ratio, e.g. 0.04 = +4%
	Time           time.Time
}

// Source supplies market snapshots. The feed itself (websocket, REST poll)
// lives outside this module.
type Source interface {
	Snapshot(ctx context.Context, symbol string) (Snapshot, error)
}

// Instrument carries the venue metadata needed to size an order.
type Instrument struct {
	Symbol      string
	MinOrderQty decimal.Decimal
	QtyStep     decimal.Decimal
}

// ClampQty rounds qty down to the instrument's quantity step, raising it to
// the minimum order quantity when the computed size is below it.
func (i Instrument) ClampQty(qty decimal.Decimal) decimal.Decimal {
	if qty.LessThan(i.MinOrderQty) {
		return i.MinOrderQty
	}
	if i.QtyStep.IsZero() {
		return qty
	}
	steps := qty.Div(i.QtyStep).Floor()
	return steps.Mul(i.QtyStep)
}

// Validate reports obviously broken instrument metadata.
func (i Instrument) Validate() error {
	if i.Symbol == "" {
		return fmt.Errorf("instrument symbol is required")
	}
	if i.MinOrderQty.IsNegative() || i.QtyStep.IsNegative() {
		return fmt.Errorf("instrument %s: negative quantity constraints", i.Symbol)
	}
	return nil
}
