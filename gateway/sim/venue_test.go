package sim

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/levtrader/gateway"
	"github.com/rustyeddy/levtrader/market"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMarketOrderFillsImmediately(t *testing.T) {
	t.Parallel()

	v := NewVenue(dec("0.0006"))
	v.SetPrice("BTCUSDT", dec("100"))

	id, err := v.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     market.Buy,
		Type:     market.Market,
		Quantity: dec("0.5"),
	})
	require.NoError(t, err)

	rep, err := v.OrderStatus(context.Background(), "BTCUSDT", id)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusFilled, rep.Status)
	assert.True(t, rep.FilledQuantity.Equal(dec("0.5")))
	assert.True(t, rep.AvgPrice.Equal(dec("100")))
	assert.True(t, rep.Fees.Equal(dec("0.03")), "fees = %s", rep.Fees)
}

func TestLimitOrderRestsUntilCrossed(t *testing.T) {
	t.Parallel()

	v := NewVenue(decimal.Zero)
	v.SetPrice("BTCUSDT", dec("100"))

	id, err := v.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     market.Buy,
		Type:     market.Limit,
		Quantity: dec("1"),
		Price:    dec("95"),
	})
	require.NoError(t, err)

	rep, err := v.OrderStatus(context.Background(), "BTCUSDT", id)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusNew, rep.Status)

	v.SetPrice("BTCUSDT", dec("94"))

	rep, err = v.OrderStatus(context.Background(), "BTCUSDT", id)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusFilled, rep.Status)
	assert.True(t, rep.AvgPrice.Equal(dec("95")), "limit orders fill at their limit price")
}

func TestLimitOrderCrossedAtPlacement(t *testing.T) {
	t.Parallel()

	v := NewVenue(decimal.Zero)
	v.SetPrice("BTCUSDT", dec("100"))

	id, err := v.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     market.Sell,
		Type:     market.Limit,
		Quantity: dec("1"),
		Price:    dec("99"),
	})
	require.NoError(t, err)

	rep, _ := v.OrderStatus(context.Background(), "BTCUSDT", id)
	assert.Equal(t, gateway.StatusFilled, rep.Status)
}

func TestPlaceOrderRejectsUnknownSymbol(t *testing.T) {
	t.Parallel()

	v := NewVenue(decimal.Zero)
	_, err := v.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "NOPE",
		Quantity: dec("1"),
	})
	assert.Error(t, err)
}

func TestPlaceOrderRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	v := NewVenue(decimal.Zero)
	v.SetPrice("BTCUSDT", dec("100"))
	_, err := v.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol: "BTCUSDT",
		Type:   market.Market,
	})
	assert.Error(t, err)
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()

	v := NewVenue(decimal.Zero)
	v.SetPrice("BTCUSDT", dec("100"))

	id, err := v.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     market.Buy,
		Type:     market.Limit,
		Quantity: dec("1"),
		Price:    dec("90"),
	})
	require.NoError(t, err)

	require.NoError(t, v.CancelOrder(context.Background(), "BTCUSDT", id))

	rep, _ := v.OrderStatus(context.Background(), "BTCUSDT", id)
	assert.Equal(t, gateway.StatusCancelled, rep.Status)

	// A filled order cannot be cancelled.
	mid, err := v.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     market.Buy,
		Type:     market.Market,
		Quantity: dec("1"),
	})
	require.NoError(t, err)
	assert.Error(t, v.CancelOrder(context.Background(), "BTCUSDT", mid))

	assert.Error(t, v.CancelOrder(context.Background(), "BTCUSDT", "sim-999"))
}

func TestInstrumentDefaults(t *testing.T) {
	t.Parallel()

	v := NewVenue(decimal.Zero)

	inst, err := v.Instrument(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, inst.MinOrderQty.Equal(dec("0.001")))

	v.SetInstrument(market.Instrument{Symbol: "BTCUSDT", MinOrderQty: dec("0.01"), QtyStep: dec("0.01")})
	inst, err = v.Instrument(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, inst.MinOrderQty.Equal(dec("0.01")))
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	v := NewVenue(decimal.Zero)
	v.SetPrice("BTCUSDT", dec("100"))
	v.SetDailyChange("BTCUSDT", dec("0.04"))

	snap, err := v.Snapshot(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, snap.Price.Equal(dec("100")))
	assert.True(t, snap.PriceChange24h.Equal(dec("0.04")))
	assert.False(t, snap.Time.IsZero())

	_, err = v.Snapshot(context.Background(), "ETHUSDT")
	assert.Error(t, err)
}

func TestSetLeverage(t *testing.T) {
	t.Parallel()

	v := NewVenue(decimal.Zero)
	assert.NoError(t, v.SetLeverage(context.Background(), "BTCUSDT", 10))
}
