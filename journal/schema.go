package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	long INTEGER NOT NULL,
	balance REAL NOT NULL,
	entry_price REAL NOT NULL,
	leverage REAL NOT NULL,
	take_profit REAL NOT NULL,
	params BLOB NOT NULL,
	orders INTEGER NOT NULL,
	total_volume REAL NOT NULL,
	total_margin REAL NOT NULL,
	avg_price REAL NOT NULL,
	req_price REAL NOT NULL,
	max_dev REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	label TEXT NOT NULL,
	price_dev REAL NOT NULL,
	price REAL NOT NULL,
	avg_price REAL NOT NULL,
	size REAL NOT NULL,
	margin REAL NOT NULL,
	volume REAL NOT NULL,
	req_price REAL NOT NULL,
	req_change REAL NOT NULL,
	pnl REAL NOT NULL,
	tp REAL NOT NULL,
	total_size REAL NOT NULL,
	total_volume REAL NOT NULL,
	total_margin REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
