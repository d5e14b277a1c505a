package journal

// Monetary columns are TEXT: decimal values round-trip exactly, REAL does not.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	status TEXT NOT NULL,
	leverage INTEGER NOT NULL,
	quantity TEXT NOT NULL,
	filled_quantity TEXT NOT NULL,
	fill_price TEXT NOT NULL,
	fees TEXT NOT NULL,
	realized_pnl TEXT NOT NULL,
	allocated_capital TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	settled_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS capital (
	time DATETIME NOT NULL,
	total TEXT NOT NULL,
	available TEXT NOT NULL,
	reserved TEXT NOT NULL,
	total_profit TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_capital_time ON capital(time);
`
