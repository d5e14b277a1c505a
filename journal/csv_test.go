package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWritesHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	capitalPath := filepath.Join(dir, "capital.csv")

	j, err := NewCSV(tradesPath, capitalPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	trades := readAll(t, tradesPath)
	require.Len(t, trades, 1)
	assert.Equal(t, "trade_id", trades[0][0])
	assert.Equal(t, "settled_at", trades[0][len(trades[0])-1])

	capital := readAll(t, capitalPath)
	require.Len(t, capital, 1)
	assert.Equal(t, []string{"time", "total", "available", "reserved", "total_profit"}, capital[0])
}

func TestCSVRecordTrade(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")

	j, err := NewCSV(tradesPath, filepath.Join(dir, "capital.csv"))
	require.NoError(t, err)

	rec := sampleTrade()
	require.NoError(t, j.RecordTrade(rec))
	require.NoError(t, j.Close())

	rows := readAll(t, tradesPath)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, rec.TradeID, row[0])
	assert.Equal(t, "BTCUSDT", row[1])
	assert.Equal(t, "BUY", row[2])
	assert.Equal(t, "FILLED", row[3])
	assert.Equal(t, "10", row[4])
	assert.Equal(t, "0.09", row[9])

	_, err = time.Parse(time.RFC3339, row[12])
	assert.NoError(t, err, "settled_at is RFC3339")
}

func TestCSVRecordCapital(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	capitalPath := filepath.Join(dir, "capital.csv")

	j, err := NewCSV(filepath.Join(dir, "trades.csv"), capitalPath)
	require.NoError(t, err)

	require.NoError(t, j.RecordCapital(CapitalSnapshot{
		Time:        time.Now(),
		Total:       dec("12.09"),
		Available:   dec("7.09"),
		Reserved:    dec("5"),
		TotalProfit: dec("0.09"),
	}))
	require.NoError(t, j.Close())

	rows := readAll(t, capitalPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "12.09", rows[1][1])
	assert.Equal(t, "5", rows[1][3])
}

func TestCSVCreateFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := NewCSV(filepath.Join(dir, "missing", "trades.csv"), filepath.Join(dir, "capital.csv"))
	assert.Error(t, err)
}

func TestNopJournal(t *testing.T) {
	t.Parallel()

	var j Journal = Nop{}
	assert.NoError(t, j.RecordTrade(TradeRecord{}))
	assert.NoError(t, j.RecordCapital(CapitalSnapshot{}))
	assert.NoError(t, j.Close())
}
