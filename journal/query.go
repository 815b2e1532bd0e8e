package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrRunNotFound = errors.New("journal: run not found")

const runColumns = `run_id, created, mode, symbols, strategies, start_date, end_date,
	initial_capital, final_capital, net_profit,
	total_return, annual_return, volatility, sharpe, sortino, calmar, max_drawdown,
	trades, round_trips, wins, losses, win_rate, profit_factor, terminated_early, config`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		rec                 RunRecord
		symbols, strategies string
		config              string
	)
	err := s.Scan(
		&rec.RunID, &rec.Created, &rec.Mode, &symbols, &strategies, &rec.Start, &rec.End,
		&rec.InitialCapital, &rec.FinalCapital, &rec.NetProfit,
		&rec.TotalReturn, &rec.AnnualReturn, &rec.Volatility, &rec.Sharpe, &rec.Sortino, &rec.Calmar, &rec.MaxDrawdown,
		&rec.Trades, &rec.RoundTrips, &rec.Wins, &rec.Losses, &rec.WinRate, &rec.ProfitFactor, &rec.TerminatedEarly, &config,
	)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Symbols = splitList(symbols)
	rec.Strategies = splitList(strategies)
	rec.Config = []byte(config)
	return rec, nil
}

// ListRuns returns every stored run, newest first.
func (j *SQLite) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun returns a single run summary by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListTradesByRunID returns the fills of a run in trade order.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, trade_id, lot, time, symbol, side, quantity, price,
		       notional, commission, slippage, cash_delta, reason, strategy
		FROM trades
		WHERE run_id = ?
		ORDER BY time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID, &rec.TradeID, &rec.Lot, &rec.Time, &rec.Symbol, &rec.Side, &rec.Quantity, &rec.Price,
			&rec.Notional, &rec.Commission, &rec.Slippage, &rec.CashDelta, &rec.Reason, &rec.Strategy,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRoundTripsByRunID returns the closed positions of a run by exit time.
func (j *SQLite) ListRoundTripsByRunID(ctx context.Context, runID string) ([]RoundTripRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, lot, symbol, strategy, entry_time, exit_time, quantity,
		       entry_price, exit_price, trip_return, pnl, reason
		FROM round_trips
		WHERE run_id = ?
		ORDER BY exit_time ASC, lot ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundTripRecord
	for rows.Next() {
		var rec RoundTripRecord
		if err := rows.Scan(
			&rec.RunID, &rec.Lot, &rec.Symbol, &rec.Strategy, &rec.Entry, &rec.Exit, &rec.Quantity,
			&rec.EntryPrice, &rec.ExitPrice, &rec.Return, &rec.PnL, &rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityByRunID returns the equity curve of a run in date order.
func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquityRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, date, cash, position_value, equity, drawdown, open_positions
		FROM equity
		WHERE run_id = ?
		ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var rec EquityRecord
		if err := rows.Scan(
			&rec.RunID, &rec.Date, &rec.Cash, &rec.PositionValue, &rec.Equity, &rec.Drawdown, &rec.OpenPositions,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
