package leverage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func vol(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSelectBase(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()

	// Normal volatility keeps the per-symbol base.
	assert.Equal(t, 10, p.Select("BTCUSDT", vol("0.05")))
	assert.Equal(t, 3, p.Select("DOGEUSDT", vol("0.05")))

	// Unknown symbols fall back to the default base.
	assert.Equal(t, 10, p.Select("XRPUSDT", vol("0.05")))
}

func TestSelectHighVolatilityHalves(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()

	assert.Equal(t, 5, p.Select("BTCUSDT", vol("0.15")))
	assert.Equal(t, 2, p.Select("SOLUSDT", vol("0.15")))

	// Halving never goes below 1.
	assert.Equal(t, 1, p.Select("DOGEUSDT", vol("0.50")))

	// Exactly at the threshold is not "above".
	assert.Equal(t, 10, p.Select("BTCUSDT", vol("0.10")))
}

func TestSelectLowVolatilityScales(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()

	assert.Equal(t, 15, p.Select("BTCUSDT", vol("0.01")))
	assert.Equal(t, 12, p.Select("BNBUSDT", vol("0.01")))

	// Exactly at the threshold is not "below".
	assert.Equal(t, 10, p.Select("BTCUSDT", vol("0.02")))
}

func TestSelectNegativeVolatilityUsesMagnitude(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	assert.Equal(t, 5, p.Select("BTCUSDT", vol("-0.15")))
	assert.Equal(t, 15, p.Select("BTCUSDT", vol("-0.01")))
}

func TestSelectClampsToBounds(t *testing.T) {
	t.Parallel()

	p := Policy{
		Base:        map[string]int{"BTCUSDT": 40},
		DefaultBase: 40,
		Min:         2,
		Max:         50,
		HighVol:     vol("0.10"),
		LowVol:      vol("0.02"),
	}

	// 40 * 1.5 = 60 would exceed Max.
	assert.Equal(t, 50, p.Select("BTCUSDT", vol("0.001")))

	// Halving below Min clamps up.
	p.Base["BTCUSDT"] = 3
	assert.Equal(t, 2, p.Select("BTCUSDT", vol("0.20")))
}

func TestSelectIsPure(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	for i := 0; i < 5; i++ {
		assert.Equal(t, 5, p.Select("BTCUSDT", vol("0.12")))
	}
}
