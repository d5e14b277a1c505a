// Package gateway defines the narrow interface the execution core uses to
// reach a trading venue. Transport, authentication and rate limiting live in
// the implementations, never here.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/levtrader/market"
)

// OrderRequest is everything the venue needs to accept an order.
type OrderRequest struct {
	Symbol   string
	Side     market.Side
	Type     market.OrderType
	Quantity decimal.Decimal
	Price    decimal.Decimal // limit orders only
}

// Status is the venue-side order state.
type Status int

const (
	StatusNew Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusCancelled:
		return "CANCELLED"
	case StatusRejected:
		return "REJECTED"
	}
	return "NEW"
}

// OrderReport is the venue's view of an order. FilledQuantity, AvgPrice and
// Fees are cumulative, so a report is a complete replacement for the last
// one, not a delta.
type OrderReport struct {
	Status         Status
	FilledQuantity decimal.Decimal
	AvgPrice       decimal.Decimal
	Fees           decimal.Decimal
}

// Gateway places, queries and cancels orders on the external venue.
type Gateway interface {
	// PlaceOrder submits the order and returns the exchange order id.
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)

	// OrderStatus reports the current state of an order.
	OrderStatus(ctx context.Context, symbol, orderID string) (OrderReport, error)

	// CancelOrder cancels an open order.
	CancelOrder(ctx context.Context, symbol, orderID string) error

	// SetLeverage configures leverage for a symbol. Best-effort: callers log
	// failures and keep the chosen leverage for sizing math.
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// Instrument returns the sizing metadata for a symbol.
	Instrument(ctx context.Context, symbol string) (market.Instrument, error)
}
