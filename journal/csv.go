package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades  *csv.Writer
	capital *csv.Writer
	tf, cf  *os.File
}

func NewCSV(tradesPath, capitalPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	cf, err := os.Create(capitalPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	cw := csv.NewWriter(cf)

	if err := tw.Write([]string{"trade_id", "symbol", "side", "status", "leverage", "quantity", "filled_quantity", "fill_price", "fees", "realized_pnl", "allocated_capital", "created_at", "settled_at"}); err != nil {
		return nil, err
	}
	if err := cw.Write([]string{"time", "total", "available", "reserved", "total_profit"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, cw, tf, cf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Symbol,
		t.Side,
		t.Status,
		strconv.Itoa(t.Leverage),
		t.Quantity.String(),
		t.FilledQuantity.String(),
		t.FillPrice.String(),
		t.Fees.String(),
		t.RealizedPnL.String(),
		t.AllocatedCapital.String(),
		t.CreatedAt.Format(time.RFC3339),
		t.SettledAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordCapital(c CapitalSnapshot) error {
	err := j.capital.Write([]string{
		c.Time.Format(time.RFC3339),
		c.Total.String(),
		c.Available.String(),
		c.Reserved.String(),
		c.TotalProfit.String(),
	})
	if err != nil {
		return err
	}
	j.capital.Flush()
	return j.capital.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.capital.Flush()
	if err := j.tf.Close(); err != nil {
		j.cf.Close()
		return err
	}
	return j.cf.Close()
}
