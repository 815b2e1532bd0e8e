package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rustyeddy/backtester/backtest"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores runs in a SQLite database file.
type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Record stores the run summary, trades, round trips and equity curve in a
// single transaction.
func (j *SQLite) Record(ctx context.Context, r *backtest.Result) error {
	run, err := NewRunRecord(r)
	if err != nil {
		return fmt.Errorf("journal: encode run %s: %w", r.RunID, err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, run); err != nil {
		return fmt.Errorf("journal: insert run %s: %w", r.RunID, err)
	}
	for _, t := range tradeRecords(r) {
		if err := insertTrade(ctx, tx, t); err != nil {
			return fmt.Errorf("journal: insert trade %s: %w", t.TradeID, err)
		}
	}
	for _, rt := range roundTripRecords(r) {
		if err := insertRoundTrip(ctx, tx, rt); err != nil {
			return fmt.Errorf("journal: insert round trip %s: %w", rt.Lot, err)
		}
	}
	for _, e := range equityRecords(r) {
		if err := insertEquity(ctx, tx, e); err != nil {
			return fmt.Errorf("journal: insert equity point: %w", err)
		}
	}

	return tx.Commit()
}

func insertRun(ctx context.Context, tx *sql.Tx, r RunRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, mode, symbols, strategies, start_date, end_date,
		 initial_capital, final_capital, net_profit,
		 total_return, annual_return, volatility, sharpe, sortino, calmar, max_drawdown,
		 trades, round_trips, wins, losses, win_rate, profit_factor, terminated_early, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Mode, joinList(r.Symbols), joinList(r.Strategies), r.Start, r.End,
		r.InitialCapital, r.FinalCapital, r.NetProfit,
		r.TotalReturn, r.AnnualReturn, r.Volatility, r.Sharpe, r.Sortino, r.Calmar, r.MaxDrawdown,
		r.Trades, r.RoundTrips, r.Wins, r.Losses, r.WinRate, r.ProfitFactor, r.TerminatedEarly, string(r.Config),
	)
	return err
}

func insertTrade(ctx context.Context, tx *sql.Tx, t TradeRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, run_id, lot, time, symbol, side, quantity, price,
		 notional, commission, slippage, cash_delta, reason, strategy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Lot, t.Time, t.Symbol, t.Side, t.Quantity, t.Price,
		t.Notional, t.Commission, t.Slippage, t.CashDelta, t.Reason, t.Strategy,
	)
	return err
}

func insertRoundTrip(ctx context.Context, tx *sql.Tx, rt RoundTripRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO round_trips
		(run_id, lot, symbol, strategy, entry_time, exit_time, quantity,
		 entry_price, exit_price, trip_return, pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rt.RunID, rt.Lot, rt.Symbol, rt.Strategy, rt.Entry, rt.Exit, rt.Quantity,
		rt.EntryPrice, rt.ExitPrice, rt.Return, rt.PnL, rt.Reason,
	)
	return err
}

func insertEquity(ctx context.Context, tx *sql.Tx, e EquityRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO equity
		(run_id, date, cash, position_value, equity, drawdown, open_positions)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Date, e.Cash, e.PositionValue, e.Equity, e.Drawdown, e.OpenPositions,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
