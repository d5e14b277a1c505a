package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTrade() TradeRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return TradeRecord{
		TradeID:          "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Symbol:           "BTCUSDT",
		Side:             "BUY",
		Status:           "FILLED",
		Leverage:         10,
		Quantity:         dec("0.5"),
		FilledQuantity:   dec("0.5"),
		FillPrice:        dec("100.40"),
		Fees:             dec("0.030"),
		RealizedPnL:      dec("0.09"),
		AllocatedCapital: dec("5.00"),
		CreatedAt:        now.Add(-time.Minute),
		SettledAt:        now,
	}
}

func TestSQLiteRecordTrade(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	defer j.Close()

	rec := sampleTrade()
	require.NoError(t, j.RecordTrade(rec))

	var (
		symbol, side, status, pnl string
		leverage                  int
	)
	row := j.db.QueryRow(`SELECT symbol, side, status, leverage, realized_pnl FROM trades WHERE trade_id = ?`, rec.TradeID)
	require.NoError(t, row.Scan(&symbol, &side, &status, &leverage, &pnl))

	assert.Equal(t, "BTCUSDT", symbol)
	assert.Equal(t, "BUY", side)
	assert.Equal(t, "FILLED", status)
	assert.Equal(t, 10, leverage)
	assert.True(t, dec(pnl).Equal(dec("0.09")), "decimal round-trips through TEXT")
}

func TestSQLiteRecordCapital(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.RecordCapital(CapitalSnapshot{
		Time:        time.Now(),
		Total:       dec("12.09"),
		Available:   dec("12.09"),
		Reserved:    dec("0"),
		TotalProfit: dec("0.09"),
	}))

	var total, available string
	row := j.db.QueryRow(`SELECT total, available FROM capital`)
	require.NoError(t, row.Scan(&total, &available))
	assert.True(t, dec(total).Equal(dec("12.09")))
	assert.True(t, dec(available).Equal(dec("12.09")))
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordTrade(sampleTrade()))
	require.NoError(t, j.Close())

	// Schema creation is idempotent and prior rows survive.
	j2, err := NewSQLite(path)
	require.NoError(t, err)
	defer j2.Close()

	var n int
	require.NoError(t, j2.db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&n))
	assert.Equal(t, 1, n)
}
