package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, side, status, leverage, quantity, filled_quantity,
		 fill_price, fees, realized_pnl, allocated_capital, created_at, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Side, t.Status, t.Leverage,
		t.Quantity.String(), t.FilledQuantity.String(), t.FillPrice.String(),
		t.Fees.String(), t.RealizedPnL.String(), t.AllocatedCapital.String(),
		t.CreatedAt, t.SettledAt,
	)
	return err
}

func (j *SQLiteJournal) RecordCapital(c CapitalSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO capital
		(time, total, available, reserved, total_profit)
		VALUES (?, ?, ?, ?, ?)`,
		c.Time, c.Total.String(), c.Available.String(), c.Reserved.String(),
		c.TotalProfit.String(),
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
