package journal

// Money columns are TEXT holding exact decimal strings.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	mode TEXT NOT NULL,
	symbols TEXT NOT NULL,
	strategies TEXT NOT NULL,
	start_date DATETIME,
	end_date DATETIME,
	initial_capital TEXT NOT NULL,
	final_capital TEXT NOT NULL,
	net_profit TEXT NOT NULL,
	total_return REAL NOT NULL,
	annual_return REAL NOT NULL,
	volatility REAL NOT NULL,
	sharpe REAL NOT NULL,
	sortino TEXT NOT NULL,
	calmar REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trades INTEGER NOT NULL,
	round_trips INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	terminated_early INTEGER NOT NULL,
	config TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	lot TEXT NOT NULL,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	price REAL NOT NULL,
	notional TEXT NOT NULL,
	commission TEXT NOT NULL,
	slippage TEXT NOT NULL,
	cash_delta TEXT NOT NULL,
	reason TEXT NOT NULL,
	strategy TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS round_trips (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	lot TEXT NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	quantity INTEGER NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	trip_return REAL NOT NULL,
	pnl TEXT NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, lot)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	date DATETIME NOT NULL,
	cash TEXT NOT NULL,
	position_value TEXT NOT NULL,
	equity TEXT NOT NULL,
	drawdown REAL NOT NULL,
	open_positions INTEGER NOT NULL,
	PRIMARY KEY (run_id, date)
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, time);
`
