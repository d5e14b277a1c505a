package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/levtrader/gateway"
	"github.com/rustyeddy/levtrader/trade"
)

// monitor is the per-order watcher. It polls the gateway until the trade
// reaches a terminal state or the attempt budget runs out. A trade left
// behind by a timed-out monitor stays in the active set for reconciliation;
// guessing an outcome would be worse than reporting none.
func (e *Executor) monitor(t *trade.Trade) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= e.cfg.MaxPollAttempts; attempt++ {
		select {
		case <-e.done:
			return
		case <-ticker.C:
		}

		rep, err := e.gw.OrderStatus(context.Background(), t.Symbol, t.ExchangeOrderID)
		if err != nil {
			// Transient: retried on the next tick, no state change.
			e.log.Warn("order status query failed",
				"trade", t.ID, "attempt", attempt, "error", err)
			continue
		}

		e.mu.Lock()
		changed, aerr := t.Apply(reportFromGateway(rep), time.Now())
		status := t.Status
		e.mu.Unlock()

		if aerr != nil {
			e.log.Error("order report rejected", "trade", t.ID, "error", aerr)
			continue
		}
		if changed {
			e.log.Info("trade transition",
				"trade", t.ID, "status", status.String(),
				"filled", rep.FilledQuantity.String(), "avg_price", rep.AvgPrice.String())
		}
		if status.Terminal() {
			e.settle(t)
			return
		}
	}

	e.log.Warn("monitor timeout, trade left active for reconciliation",
		"trade", t.ID, "order", t.ExchangeOrderID, "attempts", e.cfg.MaxPollAttempts)
}

// reportFromGateway maps the venue's order view onto the trade state machine.
func reportFromGateway(r gateway.OrderReport) trade.Report {
	var st trade.Status
	switch r.Status {
	case gateway.StatusFilled:
		st = trade.Filled
	case gateway.StatusPartiallyFilled:
		st = trade.PartiallyFilled
	case gateway.StatusCancelled:
		st = trade.Cancelled
	case gateway.StatusRejected:
		st = trade.Rejected
	default:
		st = trade.Placed
	}
	return trade.Report{
		Status:         st,
		FilledQuantity: r.FilledQuantity,
		AvgPrice:       r.AvgPrice,
		Fees:           r.Fees,
	}
}

// settle runs exactly once per trade, from the monitor's single terminal
// transition branch: position update, capital release, statistics, then the
// move from the active map to history. Each structure is internally
// consistent at every step; their joint ordering is not transactional.
func (e *Executor) settle(t *trade.Trade) {
	now := time.Now()

	// Fold the filled portion into the position book first so the realized
	// P&L is known before capital settles. Cancelled/rejected trades with
	// partial fills still move the position.
	var realized decimal.Decimal
	if t.FilledQuantity.Sign() > 0 {
		realized = e.book.Apply(t.ID, t.Symbol, t.Side, t.FilledQuantity, t.FillPrice, t.Fees, t.Leverage, now)
	}

	e.mu.Lock()
	t.RealizedPnL = realized
	status := t.Status
	e.mu.Unlock()

	if status == trade.Filled {
		net := realized.Sub(t.Fees)
		if err := e.ledger.Settle(t.AllocatedCapital, net); err != nil {
			e.haltOn(err)
		}
		e.stats.RecordFill(t.Notional(), t.Fees, net)
		e.stats.SetUnrealized(e.book.TotalUnrealized())

		e.mu.Lock()
		e.totalProfit = e.totalProfit.Add(net)
		e.mu.Unlock()

		e.log.Info("trade filled",
			"trade", t.ID, "symbol", t.Symbol, "qty", t.FilledQuantity.String(),
			"price", t.FillPrice.String(), "fees", t.Fees.String(), "pnl", net.String())
	} else {
		// Failed, cancelled or rejected: the reservation comes back in full.
		if err := e.ledger.Release(t.AllocatedCapital); err != nil {
			e.haltOn(err)
		}
		e.stats.RecordFailure()
		e.log.Warn("trade settled without fill",
			"trade", t.ID, "symbol", t.Symbol, "status", status.String(), "error", t.Error)
	}

	e.mu.Lock()
	delete(e.active, t.ID)
	e.history = append(e.history, t)
	e.mu.Unlock()

	e.journalTrade(t)
}

// refreshLoop periodically marks open positions to the latest snapshot price
// and rolls the aggregate unrealized P&L into the statistics.
func (e *Executor) refreshLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
		}

		for _, symbol := range e.book.Symbols() {
			snap, err := e.md.Snapshot(context.Background(), symbol)
			if err != nil {
				e.log.Warn("position refresh failed", "symbol", symbol, "error", err)
				continue
			}
			e.book.MarkPrice(symbol, snap.Price, snap.Time)
		}
		e.stats.SetUnrealized(e.book.TotalUnrealized())
	}
}
