package journal

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/backtester/backtest"
)

var (
	tradeHeader  = []string{"run_id", "trade_id", "lot", "time", "symbol", "side", "quantity", "price", "notional", "commission", "slippage", "cash_delta", "reason", "strategy"}
	equityHeader = []string{"run_id", "date", "cash", "position_value", "equity", "drawdown", "open_positions"}
)

// CSV appends the trades and equity curve of every recorded run to two
// files, tagged by run ID.
type CSV struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

var _ Journal = (*CSV)(nil)

func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	j := &CSV{trades: csv.NewWriter(tf), equity: csv.NewWriter(ef), tf: tf, ef: ef}
	if err := j.trades.Write(tradeHeader); err != nil {
		j.Close()
		return nil, err
	}
	if err := j.equity.Write(equityHeader); err != nil {
		j.Close()
		return nil, err
	}
	if err := j.flush(); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSV) Record(_ context.Context, r *backtest.Result) error {
	for _, t := range tradeRecords(r) {
		if err := j.trades.Write(TradeRow(t)); err != nil {
			return err
		}
	}
	for _, e := range equityRecords(r) {
		if err := j.equity.Write(EquityRow(e)); err != nil {
			return err
		}
	}
	return j.flush()
}

func (j *CSV) flush() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	ferr := j.flush()
	terr := j.tf.Close()
	eerr := j.ef.Close()
	for _, err := range []error{ferr, terr, eerr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// TradeRow renders t in trade CSV column order.
func TradeRow(t TradeRecord) []string {
	return []string{
		t.RunID,
		t.TradeID,
		t.Lot,
		t.Time.UTC().Format(time.RFC3339),
		t.Symbol,
		t.Side,
		strconv.FormatInt(t.Quantity, 10),
		f(t.Price),
		t.Notional.String(),
		t.Commission.String(),
		t.Slippage.String(),
		t.CashDelta.String(),
		t.Reason,
		t.Strategy,
	}
}

// EquityRow renders e in equity CSV column order.
func EquityRow(e EquityRecord) []string {
	return []string{
		e.RunID,
		e.Date.UTC().Format("2006-01-02"),
		e.Cash.String(),
		e.PositionValue.String(),
		e.Equity.String(),
		f(e.Drawdown),
		strconv.Itoa(e.OpenPositions),
	}
}

// WriteTradesCSV writes trades with a header row.
func WriteTradesCSV(w *csv.Writer, trades []TradeRecord) error {
	if err := w.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := w.Write(TradeRow(t)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteEquityCSV writes an equity curve with a header row.
func WriteEquityCSV(w *csv.Writer, curve []EquityRecord) error {
	if err := w.Write(equityHeader); err != nil {
		return err
	}
	for _, e := range curve {
		if err := w.Write(EquityRow(e)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
