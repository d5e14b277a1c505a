package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSideString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "BUY", Buy.String())
	assert.Equal(t, "SELL", Sell.String())
}

func TestSideOpposite(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}

func TestOrderTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "MARKET", Market.String())
	assert.Equal(t, "LIMIT", Limit.String())
}

func TestClampQtyFloorsToStep(t *testing.T) {
	t.Parallel()

	inst := Instrument{Symbol: "BTCUSDT", MinOrderQty: dec("0.001"), QtyStep: dec("0.001")}

	assert.True(t, inst.ClampQty(dec("0.0509")).Equal(dec("0.050")))
	assert.True(t, inst.ClampQty(dec("0.003")).Equal(dec("0.003")))
}

func TestClampQtyRaisesToMinimum(t *testing.T) {
	t.Parallel()

	inst := Instrument{Symbol: "BTCUSDT", MinOrderQty: dec("0.01"), QtyStep: dec("0.001")}
	assert.True(t, inst.ClampQty(dec("0.0042")).Equal(dec("0.01")))
}

func TestClampQtyZeroStep(t *testing.T) {
	t.Parallel()

	inst := Instrument{Symbol: "BTCUSDT", MinOrderQty: dec("0.001")}
	assert.True(t, inst.ClampQty(dec("0.1234")).Equal(dec("0.1234")))
}

func TestInstrumentValidate(t *testing.T) {
	t.Parallel()

	ok := Instrument{Symbol: "BTCUSDT", MinOrderQty: dec("0.001"), QtyStep: dec("0.001")}
	assert.NoError(t, ok.Validate())

	assert.Error(t, Instrument{}.Validate())
	assert.Error(t, Instrument{Symbol: "BTCUSDT", MinOrderQty: dec("-1")}.Validate())
}
