// Package position maintains one aggregated position per symbol with a
// weighted-average entry price and realized/unrealized P&L.
package position

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/levtrader/market"
)

// Position is the per-symbol aggregate. Size is signed: positive is long.
// Positions are never deleted; size may return to zero and be reused.
type Position struct {
	Symbol        string
	Size          decimal.Decimal
	AvgEntryPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	UnrealizedPnL decimal.Decimal
	RealizedPnL   decimal.Decimal // cumulative across all trades on this symbol
	TotalFees     decimal.Decimal
	Leverage      int // leverage of the most recent contributing trade
	UpdatedAt     time.Time
}

// Notional is |size| * current price.
func (p Position) Notional() decimal.Decimal {
	return p.Size.Abs().Mul(p.CurrentPrice)
}

// Book owns all positions. Updates are serialized under one lock so two
// trades on the same symbol settling concurrently cannot lose an
// average-entry-price update.
type Book struct {
	mu        sync.Mutex
	positions map[string]*Position
	applied   map[string]struct{} // trade IDs already folded in
}

func NewBook() *Book {
	return &Book{
		positions: make(map[string]*Position),
		applied:   make(map[string]struct{}),
	}
}

// Apply folds a fill into the symbol's position and returns the P&L realized
// on the closed portion (zero when opening or adding). Replaying the same
// trade ID is a no-op, so settlement retries cannot double-count.
func (b *Book) Apply(tradeID, symbol string, side market.Side, qty, price, fees decimal.Decimal, lev int, now time.Time) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, dup := b.applied[tradeID]; dup {
		return decimal.Zero
	}
	b.applied[tradeID] = struct{}{}

	p, ok := b.positions[symbol]
	if !ok {
		p = &Position{Symbol: symbol}
		b.positions[symbol] = p
	}

	delta := qty
	if side == market.Sell {
		delta = qty.Neg()
	}

	var realized decimal.Decimal
	switch {
	case p.Size.IsZero():
		p.Size = delta
		p.AvgEntryPrice = price

	case p.Size.Sign() == delta.Sign():
		// Adding: notional-weighted average entry.
		notional := p.Size.Mul(p.AvgEntryPrice).Add(delta.Mul(price))
		p.Size = p.Size.Add(delta)
		p.AvgEntryPrice = notional.Div(p.Size)

	default:
		// Reducing, closing or flipping.
		closing := decimal.Min(delta.Abs(), p.Size.Abs())
		if p.Size.Sign() > 0 {
			realized = closing.Mul(price.Sub(p.AvgEntryPrice))
		} else {
			realized = closing.Mul(p.AvgEntryPrice.Sub(price))
		}
		p.RealizedPnL = p.RealizedPnL.Add(realized)

		flipped := delta.Abs().GreaterThan(p.Size.Abs())
		p.Size = p.Size.Add(delta)
		switch {
		case p.Size.IsZero():
			p.AvgEntryPrice = decimal.Zero
		case flipped:
			// The excess opens a fresh position at the fill price.
			p.AvgEntryPrice = price
		}
	}

	p.CurrentPrice = price
	p.TotalFees = p.TotalFees.Add(fees)
	p.Leverage = lev
	p.UpdatedAt = now
	p.UnrealizedPnL = unrealized(p.Size, p.AvgEntryPrice, p.CurrentPrice)

	return realized
}

// MarkPrice refreshes the mark price for a symbol and recomputes its
// unrealized P&L. Unknown symbols are ignored.
func (b *Book) MarkPrice(symbol string, price decimal.Decimal, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.positions[symbol]
	if !ok {
		return
	}
	p.CurrentPrice = price
	p.UpdatedAt = now
	p.UnrealizedPnL = unrealized(p.Size, p.AvgEntryPrice, p.CurrentPrice)
}

// Get returns a copy of the position for symbol.
func (b *Book) Get(symbol string) (Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns copies of every position keyed by symbol.
func (b *Book) Positions() map[string]Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]Position, len(b.positions))
	for sym, p := range b.positions {
		out[sym] = *p
	}
	return out
}

// Symbols lists symbols with a nonzero position, for the refresh cycle.
func (b *Book) Symbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	syms := make([]string, 0, len(b.positions))
	for sym, p := range b.positions {
		if !p.Size.IsZero() {
			syms = append(syms, sym)
		}
	}
	return syms
}

// TotalUnrealized sums unrealized P&L across all open positions.
func (b *Book) TotalUnrealized() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.Zero
	for _, p := range b.positions {
		total = total.Add(p.UnrealizedPnL)
	}
	return total
}

// TotalRealized sums realized P&L across all symbols.
func (b *Book) TotalRealized() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.Zero
	for _, p := range b.positions {
		total = total.Add(p.RealizedPnL)
	}
	return total
}

// TotalFees sums fees across all symbols.
func (b *Book) TotalFees() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.Zero
	for _, p := range b.positions {
		total = total.Add(p.TotalFees)
	}
	return total
}

// unrealized is size * (current - avg); the sign of size makes the same
// expression correct for shorts.
func unrealized(size, avg, current decimal.Decimal) decimal.Decimal {
	if size.IsZero() {
		return decimal.Zero
	}
	return size.Mul(current.Sub(avg))
}
