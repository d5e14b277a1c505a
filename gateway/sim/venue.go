// Package sim provides an in-memory venue for tests and demo runs. It fills
// market orders at the current mark price and limit orders when the price
// crosses them. It is not an exchange client.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/levtrader/gateway"
	"github.com/rustyeddy/levtrader/market"
)

type simOrder struct {
	req       gateway.OrderRequest
	status    gateway.Status
	fillPrice decimal.Decimal
	filledQty decimal.Decimal
	fees      decimal.Decimal
}

// Venue is a scripted exchange. It implements gateway.Gateway and
// market.Source so a demo run needs no network at all.
type Venue struct {
	mu          sync.Mutex
	prices      map[string]decimal.Decimal
	changes     map[string]decimal.Decimal // 24h change ratio per symbol
	instruments map[string]market.Instrument
	leverage    map[string]int
	orders      map[string]*simOrder
	feeRate     decimal.Decimal
	seq         int
}

// NewVenue creates a venue charging feeRate of notional per fill.
func NewVenue(feeRate decimal.Decimal) *Venue {
	return &Venue{
		prices:      make(map[string]decimal.Decimal),
		changes:     make(map[string]decimal.Decimal),
		instruments: make(map[string]market.Instrument),
		leverage:    make(map[string]int),
		orders:      make(map[string]*simOrder),
		feeRate:     feeRate,
	}
}

// SetPrice updates the mark price and fills any limit orders it crosses.
func (v *Venue) SetPrice(symbol string, price decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.prices[symbol] = price
	for _, o := range v.orders {
		if o.req.Symbol != symbol || o.status != gateway.StatusNew || o.req.Type != market.Limit {
			continue
		}
		if crossed(o.req.Side, o.req.Price, price) {
			v.fill(o, o.req.Price)
		}
	}
}

// SetDailyChange sets the 24h change ratio reported in snapshots.
func (v *Venue) SetDailyChange(symbol string, ratio decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.changes[symbol] = ratio
}

// SetInstrument registers sizing metadata for a symbol.
func (v *Venue) SetInstrument(inst market.Instrument) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.instruments[inst.Symbol] = inst
}

func (v *Venue) fill(o *simOrder, price decimal.Decimal) {
	o.status = gateway.StatusFilled
	o.fillPrice = price
	o.filledQty = o.req.Quantity
	o.fees = o.req.Quantity.Mul(price).Mul(v.feeRate)
}

func crossed(side market.Side, limit, price decimal.Decimal) bool {
	if side == market.Buy {
		return price.LessThanOrEqual(limit)
	}
	return price.GreaterThanOrEqual(limit)
}

// PlaceOrder accepts the order, filling market orders immediately.
func (v *Venue) PlaceOrder(_ context.Context, req gateway.OrderRequest) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	price, ok := v.prices[req.Symbol]
	if !ok {
		return "", fmt.Errorf("no price for %s", req.Symbol)
	}
	if req.Quantity.Sign() <= 0 {
		return "", fmt.Errorf("quantity must be positive")
	}

	v.seq++
	id := fmt.Sprintf("sim-%d", v.seq)
	o := &simOrder{req: req, status: gateway.StatusNew}
	v.orders[id] = o

	switch req.Type {
	case market.Market:
		v.fill(o, price)
	case market.Limit:
		if crossed(req.Side, req.Price, price) {
			v.fill(o, req.Price)
		}
	}
	return id, nil
}

func (v *Venue) OrderStatus(_ context.Context, _ string, orderID string) (gateway.OrderReport, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	o, ok := v.orders[orderID]
	if !ok {
		return gateway.OrderReport{}, fmt.Errorf("order %s not found", orderID)
	}
	return gateway.OrderReport{
		Status:         o.status,
		FilledQuantity: o.filledQty,
		AvgPrice:       o.fillPrice,
		Fees:           o.fees,
	}, nil
}

func (v *Venue) CancelOrder(_ context.Context, _ string, orderID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	o, ok := v.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	if o.status == gateway.StatusFilled {
		return fmt.Errorf("order %s already filled", orderID)
	}
	o.status = gateway.StatusCancelled
	return nil
}

func (v *Venue) SetLeverage(_ context.Context, symbol string, leverage int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leverage[symbol] = leverage
	return nil
}

func (v *Venue) Instrument(_ context.Context, symbol string) (market.Instrument, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if inst, ok := v.instruments[symbol]; ok {
		return inst, nil
	}
	// Permissive default so demo configs need no metadata section.
	return market.Instrument{
		Symbol:      symbol,
		MinOrderQty: decimal.RequireFromString("0.001"),
		QtyStep:     decimal.RequireFromString("0.001"),
	}, nil
}

// Snapshot implements market.Source from the venue's own mark prices.
func (v *Venue) Snapshot(_ context.Context, symbol string) (market.Snapshot, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	price, ok := v.prices[symbol]
	if !ok {
		return market.Snapshot{}, fmt.Errorf("no price for %s", symbol)
	}
	return market.Snapshot{
		Symbol:         symbol,
		Price:          price,
		Bid:            price,
		Ask:            price,
		PriceChange24h: v.changes[symbol],
		Time:           time.Now(),
	}, nil
}
