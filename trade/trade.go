package trade

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/levtrader/market"
)

var (
	// ErrTerminal is returned when a transition is applied to a trade that
	// already reached a terminal status.
	ErrTerminal = errors.New("trade already in terminal state")

	// ErrFillRegression is returned when a report carries a cumulative
	// filled quantity lower than what the trade has already recorded.
	ErrFillRegression = errors.New("filled quantity decreased")
)

// Status is the per-order lifecycle state.
type Status int

const (
	Pending Status = iota // created, not yet accepted by the gateway
	Placed                // gateway accepted, exchange order id known
	PartiallyFilled
	Filled    // terminal
	Cancelled // terminal
	Rejected  // terminal
	Failed    // terminal, gateway call errored before an order id existed
)

var statusNames = [...]string{
	Pending:         "PENDING",
	Placed:          "PLACED",
	PartiallyFilled: "PARTIALLY_FILLED",
	Filled:          "FILLED",
	Cancelled:       "CANCELLED",
	Rejected:        "REJECTED",
	Failed:          "FAILED",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN"
}

// Terminal reports whether no further transition may occur from s.
func (s Status) Terminal() bool {
	switch s {
	case Filled, Cancelled, Rejected, Failed:
		return true
	}
	return false
}

// Trade is the execution record for one order. It is created when a trade is
// requested and mutated only by the monitor that owns it; callers observe it
// through copies.
type Trade struct {
	ID              string
	ExchangeOrderID string

	Symbol string
	Side   market.Side
	Type   market.OrderType

	Quantity   decimal.Decimal
	LimitPrice decimal.Decimal // zero for market orders
	Leverage   int

	// AllocatedCapital is the amount reserved in the capital ledger for this
	// trade. It is released exactly once, at the terminal transition.
	AllocatedCapital decimal.Decimal

	Status     Status
	CreatedAt  time.Time
	ExecutedAt time.Time // set at the terminal transition

	FillPrice         decimal.Decimal // volume-weighted across partial fills
	FilledQuantity    decimal.Decimal
	RemainingQuantity decimal.Decimal
	Fees              decimal.Decimal
	RealizedPnL       decimal.Decimal

	// Snapshot is the market data at decision time, immutable once set.
	Snapshot market.Snapshot

	Error string
}

// New builds a Pending trade record.
func New(id, symbol string, side market.Side, typ market.OrderType, qty, limitPrice, capital decimal.Decimal, lev int, snap market.Snapshot, now time.Time) *Trade {
	return &Trade{
		ID:                id,
		Symbol:            symbol,
		Side:              side,
		Type:              typ,
		Quantity:          qty,
		LimitPrice:        limitPrice,
		Leverage:          lev,
		AllocatedCapital:  capital,
		Status:            Pending,
		CreatedAt:         now,
		RemainingQuantity: qty,
		Snapshot:          snap,
	}
}

// Report is a venue-side view of the order used to advance the state machine.
// Quantities and fees are cumulative.
type Report struct {
	Status         Status
	FilledQuantity decimal.Decimal
	AvgPrice       decimal.Decimal
	Fees           decimal.Decimal
}

// MarkPlaced transitions Pending -> Placed once the gateway returns an
// exchange order id.
func (t *Trade) MarkPlaced(orderID string) error {
	if t.Status.Terminal() {
		return ErrTerminal
	}
	t.ExchangeOrderID = orderID
	t.Status = Placed
	return nil
}

// MarkFailed records a terminal Failed status for a trade whose placement
// never reached the exchange.
func (t *Trade) MarkFailed(reason string, now time.Time) error {
	if t.Status.Terminal() {
		return ErrTerminal
	}
	t.Status = Failed
	t.Error = reason
	t.ExecutedAt = now
	return nil
}

// Apply folds a venue report into the trade. Transitions are monotonic:
// terminal states never transition again and the cumulative filled quantity
// never decreases. It returns whether anything changed.
func (t *Trade) Apply(r Report, now time.Time) (bool, error) {
	if t.Status.Terminal() {
		return false, ErrTerminal
	}
	if r.FilledQuantity.LessThan(t.FilledQuantity) {
		return false, ErrFillRegression
	}

	changed := r.Status != t.Status || !r.FilledQuantity.Equal(t.FilledQuantity)
	if !changed {
		return false, nil
	}

	if r.FilledQuantity.Sign() > 0 {
		t.FilledQuantity = r.FilledQuantity
		t.RemainingQuantity = t.Quantity.Sub(r.FilledQuantity)
		if t.RemainingQuantity.IsNegative() {
			t.RemainingQuantity = decimal.Zero
		}
		if r.AvgPrice.Sign() > 0 {
			t.FillPrice = r.AvgPrice
		}
		t.Fees = r.Fees
	}

	t.Status = r.Status
	if r.Status.Terminal() {
		t.ExecutedAt = now
		if r.Status == Filled {
			t.RemainingQuantity = decimal.Zero
		}
	}
	return true, nil
}

// Notional is the filled quantity at the fill price.
func (t *Trade) Notional() decimal.Decimal {
	return t.FilledQuantity.Mul(t.FillPrice)
}
