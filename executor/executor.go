// Package executor turns trading decisions into reserved-capital, monitored
// exchange orders and folds fills back into positions and statistics.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/levtrader/gateway"
	"github.com/rustyeddy/levtrader/journal"
	"github.com/rustyeddy/levtrader/ledger"
	"github.com/rustyeddy/levtrader/leverage"
	"github.com/rustyeddy/levtrader/market"
	"github.com/rustyeddy/levtrader/pkg/id"
	"github.com/rustyeddy/levtrader/position"
	"github.com/rustyeddy/levtrader/stats"
	"github.com/rustyeddy/levtrader/trade"
)

var (
	// ErrHalted is returned once the engine has latched a ledger invariant
	// violation. No further trades are accepted.
	ErrHalted = errors.New("trading halted after ledger invariant violation")

	// ErrPlacement wraps gateway errors from order placement. The trade is
	// recorded as Failed and its capital reservation is released.
	ErrPlacement = errors.New("order placement failed")
)

// Config bounds the per-order execution monitors.
type Config struct {
	// PollInterval is how often each monitor queries order status.
	PollInterval time.Duration

	// MaxPollAttempts bounds polling per order. A monitor that exhausts its
	// budget logs a timeout and leaves the trade active for reconciliation.
	MaxPollAttempts int

	// RefreshInterval is how often open positions are marked to market.
	RefreshInterval time.Duration
}

// DefaultConfig polls every 5s for up to 10 minutes per order.
func DefaultConfig() Config {
	return Config{
		PollInterval:    5 * time.Second,
		MaxPollAttempts: 120,
		RefreshInterval: 30 * time.Second,
	}
}

// Executor owns the capital ledger, the active-trades map, the position book
// and the statistics. Other components see them only through its query
// methods.
type Executor struct {
	gw     gateway.Gateway
	md     market.Source
	ledger *ledger.Ledger
	book   *position.Book
	stats  *stats.Aggregator
	policy leverage.Policy
	cfg    Config
	jrnl   journal.Journal
	log    *slog.Logger

	mu          sync.Mutex
	active      map[string]*trade.Trade
	history     []*trade.Trade
	totalProfit decimal.Decimal
	halted      bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New wires the executor and starts the position refresh loop. Callers must
// Close it to stop background work.
func New(gw gateway.Gateway, md market.Source, led *ledger.Ledger, policy leverage.Policy, cfg Config, jrnl journal.Journal, log *slog.Logger) *Executor {
	if jrnl == nil {
		jrnl = journal.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	e := &Executor{
		gw:          gw,
		md:          md,
		ledger:      led,
		book:        position.NewBook(),
		stats:       stats.NewAggregator(),
		policy:      policy,
		cfg:         cfg,
		jrnl:        jrnl,
		log:         log,
		active:      make(map[string]*trade.Trade),
		totalProfit: decimal.Zero,
		done:        make(chan struct{}),
	}

	e.wg.Add(1)
	go e.refreshLoop()

	return e
}

// Close stops the refresh loop and all monitors and waits for them.
func (e *Executor) Close() {
	e.closeOnce.Do(func() { close(e.done) })
	e.wg.Wait()
}

// ExecuteTrade reserves capital, sizes and places an order, and spawns a
// monitor that drives it to settlement. It returns the trade ID to poll, or
// a synchronous rejection; everything after placement is observed through
// the query methods, never through errors from background work.
func (e *Executor) ExecuteTrade(ctx context.Context, symbol string, side market.Side, capital decimal.Decimal, typ market.OrderType, limitPrice decimal.Decimal) (string, error) {
	e.mu.Lock()
	halted := e.halted
	e.mu.Unlock()
	if halted {
		return "", ErrHalted
	}
	if capital.Sign() <= 0 {
		return "", fmt.Errorf("trade capital must be positive, got %s", capital)
	}
	if typ == market.Limit && limitPrice.Sign() <= 0 {
		return "", fmt.Errorf("limit price required for limit orders")
	}

	snap, err := e.md.Snapshot(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("market snapshot for %s: %w", symbol, err)
	}
	if snap.Price.Sign() <= 0 {
		return "", fmt.Errorf("no usable price for %s", symbol)
	}
	inst, err := e.gw.Instrument(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("instrument metadata for %s: %w", symbol, err)
	}

	if err := e.ledger.Reserve(capital); err != nil {
		return "", err
	}

	lev := e.policy.Select(symbol, snap.PriceChange24h)
	qty := orderQuantity(capital, lev, snap.Price, inst)
	if qty.Sign() <= 0 {
		e.releaseOrHalt(capital)
		return "", fmt.Errorf("computed quantity for %s is zero", symbol)
	}

	t := trade.New(id.New(), symbol, side, typ, qty, limitPrice, capital, lev, snap, time.Now())

	e.log.Info("executing trade",
		"trade", t.ID, "symbol", symbol, "side", side.String(),
		"qty", qty.String(), "leverage", lev, "capital", capital.String())

	// Best-effort: the chosen leverage still drives sizing even if the venue
	// rejects the setting.
	if err := e.gw.SetLeverage(ctx, symbol, lev); err != nil {
		e.log.Warn("set leverage failed", "symbol", symbol, "leverage", lev, "error", err)
	}

	orderID, err := e.gw.PlaceOrder(ctx, gateway.OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     typ,
		Quantity: qty,
		Price:    limitPrice,
	})
	if err != nil {
		now := time.Now()
		e.mu.Lock()
		_ = t.MarkFailed(err.Error(), now)
		e.history = append(e.history, t)
		e.mu.Unlock()

		e.releaseOrHalt(capital)
		e.stats.RecordFailure()
		e.journalTrade(t)

		e.log.Error("order placement failed", "trade", t.ID, "symbol", symbol, "error", err)
		return "", fmt.Errorf("%w: %v", ErrPlacement, err)
	}

	e.mu.Lock()
	_ = t.MarkPlaced(orderID)
	e.active[t.ID] = t
	e.mu.Unlock()

	e.log.Info("order placed", "trade", t.ID, "order", orderID, "symbol", symbol)

	e.wg.Add(1)
	go e.monitor(t)

	return t.ID, nil
}

// orderQuantity sizes an order from capital, leverage and price, clamped to
// the instrument's tradable increments.
func orderQuantity(capital decimal.Decimal, lev int, price decimal.Decimal, inst market.Instrument) decimal.Decimal {
	notional := capital.Mul(decimal.NewFromInt(int64(lev)))
	return inst.ClampQty(notional.Div(price))
}

// releaseOrHalt returns a reservation, latching the halt flag if the ledger
// reports a pairing bug.
func (e *Executor) releaseOrHalt(amount decimal.Decimal) {
	if err := e.ledger.Release(amount); err != nil {
		e.haltOn(err)
	}
}

// haltOn stops further trading on a ledger invariant violation. Anything
// else is logged and trading continues.
func (e *Executor) haltOn(err error) {
	if !errors.Is(err, ledger.ErrInvariantViolation) {
		e.log.Error("ledger error", "error", err)
		return
	}
	e.mu.Lock()
	already := e.halted
	e.halted = true
	e.mu.Unlock()
	if !already {
		e.log.Error("HALTING TRADING: ledger invariant violated", "error", err)
	}
}

// Halted reports whether the engine has stopped accepting trades.
func (e *Executor) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// CancelAllOrders asks the venue to cancel every active order with a known
// exchange id. It does not wait for settlement; confirmations arrive through
// the normal monitor path.
func (e *Executor) CancelAllOrders(ctx context.Context) error {
	type target struct{ tradeID, symbol, orderID string }

	e.mu.Lock()
	targets := make([]target, 0, len(e.active))
	for _, t := range e.active {
		if t.ExchangeOrderID != "" {
			targets = append(targets, target{t.ID, t.Symbol, t.ExchangeOrderID})
		}
	}
	e.mu.Unlock()

	var errs []error
	for _, tg := range targets {
		if err := e.gw.CancelOrder(ctx, tg.symbol, tg.orderID); err != nil {
			e.log.Error("cancel order failed", "trade", tg.tradeID, "order", tg.orderID, "error", err)
			errs = append(errs, fmt.Errorf("cancel %s: %w", tg.tradeID, err))
			continue
		}
		e.log.Info("cancel requested", "trade", tg.tradeID, "order", tg.orderID)
	}
	return errors.Join(errs...)
}

// EmergencyCloseAllPositions places an opposite-side market order for every
// nonzero position. Best-effort: per-symbol failures are logged and do not
// abort the remaining closures.
func (e *Executor) EmergencyCloseAllPositions(ctx context.Context) error {
	e.log.Warn("emergency close of all positions requested")

	var errs []error
	for symbol, p := range e.book.Positions() {
		if p.Size.IsZero() {
			continue
		}
		side := market.Sell
		if p.Size.Sign() < 0 {
			side = market.Buy
		}
		qty := p.Size.Abs()

		orderID, err := e.gw.PlaceOrder(ctx, gateway.OrderRequest{
			Symbol:   symbol,
			Side:     side,
			Type:     market.Market,
			Quantity: qty,
		})
		if err != nil {
			e.log.Error("emergency close failed", "symbol", symbol, "error", err)
			errs = append(errs, fmt.Errorf("close %s: %w", symbol, err))
			continue
		}
		e.log.Warn("emergency close order placed",
			"symbol", symbol, "side", side.String(), "qty", qty.String(), "order", orderID)
	}
	return errors.Join(errs...)
}

// TradingStats returns the aggregate statistics with current capital
// utilization folded in.
func (e *Executor) TradingStats() stats.Stats {
	s := e.stats.Snapshot()
	s.CapitalUtilization = e.ledger.Utilization()
	return s
}

// Positions returns copies of all positions keyed by symbol.
func (e *Executor) Positions() map[string]position.Position {
	return e.book.Positions()
}

// ActiveTrades returns copies of all in-flight trades.
func (e *Executor) ActiveTrades() []trade.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]trade.Trade, 0, len(e.active))
	for _, t := range e.active {
		out = append(out, *t)
	}
	return out
}

// TradeHistory returns up to limit settled trades, newest first. A limit of
// zero or less returns everything.
func (e *Executor) TradeHistory(limit int) []trade.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	if limit <= 0 || limit > len(e.history) {
		limit = len(e.history)
	}
	out := make([]trade.Trade, 0, limit)
	for i := len(e.history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *e.history[i])
	}
	return out
}

// Capital returns the ledger balances.
func (e *Executor) Capital() ledger.Snapshot {
	return e.ledger.View()
}

// TotalProfit returns the running net profit over all settled trades.
func (e *Executor) TotalProfit() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalProfit
}

// CapitalUtilization returns reserved/total as a ratio in [0,1].
func (e *Executor) CapitalUtilization() float64 {
	return e.ledger.Utilization()
}

// ProfitBreakdown is the detailed profit report.
type ProfitBreakdown struct {
	RealizedPnL      decimal.Decimal
	UnrealizedPnL    decimal.Decimal
	Fees             decimal.Decimal
	NetProfit        decimal.Decimal
	GrossProfit      decimal.Decimal
	ProfitFactor     float64
	WinRate          float64
	TotalTrades      uint64
	SuccessfulTrades uint64
}

// Breakdown reports realized, unrealized and net profit in one view.
func (e *Executor) Breakdown() ProfitBreakdown {
	s := e.stats.Snapshot()
	unrealized := e.book.TotalUnrealized()

	return ProfitBreakdown{
		RealizedPnL:      s.TotalRealizedPnL,
		UnrealizedPnL:    unrealized,
		Fees:             e.book.TotalFees(),
		NetProfit:        e.TotalProfit(),
		GrossProfit:      s.TotalRealizedPnL.Add(unrealized),
		ProfitFactor:     s.ProfitFactor,
		WinRate:          s.WinRate,
		TotalTrades:      s.TotalTrades,
		SuccessfulTrades: s.SuccessfulTrades,
	}
}

// journalTrade writes the trade record and a capital snapshot. Journal
// failures never affect settlement.
func (e *Executor) journalTrade(t *trade.Trade) {
	e.mu.Lock()
	rec := journal.TradeRecord{
		TradeID:          t.ID,
		Symbol:           t.Symbol,
		Side:             t.Side.String(),
		Status:           t.Status.String(),
		Leverage:         t.Leverage,
		Quantity:         t.Quantity,
		FilledQuantity:   t.FilledQuantity,
		FillPrice:        t.FillPrice,
		Fees:             t.Fees,
		RealizedPnL:      t.RealizedPnL,
		AllocatedCapital: t.AllocatedCapital,
		CreatedAt:        t.CreatedAt,
		SettledAt:        t.ExecutedAt,
	}
	profit := e.totalProfit
	e.mu.Unlock()

	if err := e.jrnl.RecordTrade(rec); err != nil {
		e.log.Error("journal trade failed", "trade", t.ID, "error", err)
	}

	bal := e.ledger.View()
	err := e.jrnl.RecordCapital(journal.CapitalSnapshot{
		Time:        time.Now(),
		Total:       bal.Total,
		Available:   bal.Available,
		Reserved:    bal.Reserved,
		TotalProfit: profit,
	})
	if err != nil {
		e.log.Error("journal capital failed", "error", err)
	}
}
