package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientCapital is returned when a reservation exceeds the
	// available balance. The ledger is left untouched.
	ErrInsufficientCapital = errors.New("insufficient capital")

	// ErrInvariantViolation means a release/settle was not paired with a
	// matching reservation, or settlement would drive the available balance
	// negative. It indicates a bug in the caller's pairing, not a market
	// condition, and the engine halts trading when it sees one.
	ErrInvariantViolation = errors.New("capital ledger invariant violated")
)

// Ledger is the single source of truth for trading capital. Total capital is
// fixed at construction; every Reserve must be paired with exactly one
// Release (failure path) or Settle (fill path).
type Ledger struct {
	mu        sync.Mutex
	total     decimal.Decimal
	available decimal.Decimal
	reserved  decimal.Decimal
}

// Snapshot is a consistent copy of the ledger balances.
type Snapshot struct {
	Total     decimal.Decimal
	Available decimal.Decimal
	Reserved  decimal.Decimal
}

// New creates a ledger with the given total capital, all of it available.
func New(total decimal.Decimal) (*Ledger, error) {
	if total.Sign() <= 0 {
		return nil, fmt.Errorf("total capital must be positive, got %s", total)
	}
	return &Ledger{
		total:     total,
		available: total,
		reserved:  decimal.Zero,
	}, nil
}

// Reserve moves amount from available to reserved atomically.
func (l *Ledger) Reserve(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: reserve amount %s is not positive", ErrInvariantViolation, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.GreaterThan(l.available) {
		return fmt.Errorf("%w: requested %s, available %s", ErrInsufficientCapital, amount, l.available)
	}
	l.available = l.available.Sub(amount)
	l.reserved = l.reserved.Add(amount)
	return nil
}

// Release returns a reservation to the available balance in full. Used when
// a trade ends without a fill (failed, cancelled or rejected).
func (l *Ledger) Release(amount decimal.Decimal) error {
	return l.settle(amount, decimal.Zero)
}

// Settle releases a reservation and applies the trade's realized P&L (net of
// fees) to the available balance. pnl may be negative, but never by more than
// the ledger holds: a settlement that would leave available negative is
// rejected with ErrInvariantViolation and the ledger is left unchanged.
func (l *Ledger) Settle(amount, pnl decimal.Decimal) error {
	return l.settle(amount, pnl)
}

func (l *Ledger) settle(amount, pnl decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: release amount %s is not positive", ErrInvariantViolation, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.GreaterThan(l.reserved) {
		return fmt.Errorf("%w: release %s exceeds reserved %s", ErrInvariantViolation, amount, l.reserved)
	}
	next := l.available.Add(amount).Add(pnl)
	if next.IsNegative() {
		return fmt.Errorf("%w: settlement pnl %s would leave available at %s", ErrInvariantViolation, pnl, next)
	}
	l.reserved = l.reserved.Sub(amount)
	l.available = next
	l.total = l.total.Add(pnl)
	return nil
}

// Total returns the ledger's total capital (initial capital plus settled P&L).
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Available returns the capital free for new reservations.
func (l *Ledger) Available() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available
}

// Reserved returns the capital earmarked for in-flight trades.
func (l *Ledger) Reserved() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserved
}

// View returns all three balances under a single lock acquisition.
func (l *Ledger) View() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{Total: l.total, Available: l.available, Reserved: l.reserved}
}

// Utilization returns reserved/total as a ratio in [0,1].
func (l *Ledger) Utilization() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.total.Sign() <= 0 {
		return 0
	}
	u, _ := l.reserved.Div(l.total).Float64()
	return u
}
