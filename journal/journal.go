// Package journal persists finished backtest runs: a SQLite store that can
// be queried later, CSV files for spreadsheets, and Org-mode run reports.
package journal

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/shopspring/decimal"
)

// Journal is a backtest.Sink that holds a resource open until Close.
type Journal interface {
	Record(ctx context.Context, r *backtest.Result) error
	Close() error
}

// RunRecord is the summary row of one run.
type RunRecord struct {
	RunID           string
	Created         time.Time
	Mode            string
	Symbols         []string
	Strategies      []string
	Start           time.Time
	End             time.Time
	InitialCapital  decimal.Decimal
	FinalCapital    decimal.Decimal
	NetProfit       decimal.Decimal
	TotalReturn     float64
	AnnualReturn    float64
	Volatility      float64
	Sharpe          float64
	Sortino         string // "inf" when there were no losing days
	Calmar          float64
	MaxDrawdown     float64
	Trades          int
	RoundTrips      int
	Wins            int
	Losses          int
	WinRate         float64
	ProfitFactor    float64
	TerminatedEarly bool
	Config          []byte // backtest.Config as JSON
}

// TradeRecord is one fill of a run.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Lot        string
	Time       time.Time
	Symbol     string
	Side       string
	Quantity   int64
	Price      float64
	Notional   decimal.Decimal
	Commission decimal.Decimal
	Slippage   decimal.Decimal
	CashDelta  decimal.Decimal
	Reason     string
	Strategy   string
}

// RoundTripRecord is one closed position of a run.
type RoundTripRecord struct {
	RunID      string
	Lot        string
	Symbol     string
	Strategy   string
	Entry      time.Time
	Exit       time.Time
	Quantity   int64
	EntryPrice float64
	ExitPrice  float64
	Return     float64
	PnL        decimal.Decimal
	Reason     string
}

// EquityRecord is one point of a run's equity curve.
type EquityRecord struct {
	RunID         string
	Date          time.Time
	Cash          decimal.Decimal
	PositionValue decimal.Decimal
	Equity        decimal.Decimal
	Drawdown      float64
	OpenPositions int
}

// NewRunRecord flattens the summary of r.
func NewRunRecord(r *backtest.Result) (RunRecord, error) {
	cfg, err := json.Marshal(r.Config)
	if err != nil {
		return RunRecord{}, err
	}

	names := make([]string, 0, len(r.Strategies))
	for _, s := range r.Strategies {
		names = append(names, s.Name)
	}

	ts := r.TradeStats
	return RunRecord{
		RunID:           r.RunID,
		Created:         time.Now().UTC(),
		Mode:            string(r.Mode),
		Symbols:         r.Config.Symbols,
		Strategies:      names,
		Start:           r.Start,
		End:             r.End,
		InitialCapital:  r.InitialCapital,
		FinalCapital:    r.FinalCapital,
		NetProfit:       ts.NetProfit,
		TotalReturn:     r.Metrics.TotalReturn,
		AnnualReturn:    r.Metrics.AnnualReturn,
		Volatility:      r.Metrics.Volatility,
		Sharpe:          r.Metrics.Sharpe,
		Sortino:         r.Metrics.Sortino.String(),
		Calmar:          r.Metrics.Calmar,
		MaxDrawdown:     r.Metrics.MaxDrawdown,
		Trades:          ts.Trades,
		RoundTrips:      ts.RoundTrips,
		Wins:            ts.Wins,
		Losses:          ts.Losses,
		WinRate:         ts.WinRate,
		ProfitFactor:    ts.ProfitFactor,
		TerminatedEarly: r.TerminatedEarly,
		Config:          cfg,
	}, nil
}

func tradeRecords(r *backtest.Result) []TradeRecord {
	out := make([]TradeRecord, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = TradeRecord{
			RunID:      r.RunID,
			TradeID:    t.ID,
			Lot:        t.Lot,
			Time:       t.Time,
			Symbol:     t.Symbol,
			Side:       t.Side.String(),
			Quantity:   t.Quantity,
			Price:      t.Price,
			Notional:   t.Notional,
			Commission: t.Commission,
			Slippage:   t.Slippage,
			CashDelta:  t.CashDelta,
			Reason:     string(t.Reason),
			Strategy:   t.Strategy(),
		}
	}
	return out
}

func roundTripRecords(r *backtest.Result) []RoundTripRecord {
	out := make([]RoundTripRecord, len(r.RoundTrips))
	for i, rt := range r.RoundTrips {
		out[i] = RoundTripRecord{
			RunID:      r.RunID,
			Lot:        rt.Lot,
			Symbol:     rt.Symbol,
			Strategy:   rt.Strategy,
			Entry:      rt.Entry,
			Exit:       rt.Exit,
			Quantity:   rt.Quantity,
			EntryPrice: rt.EntryPrice,
			ExitPrice:  rt.ExitPrice,
			Return:     rt.Return,
			PnL:        rt.PnL,
			Reason:     string(rt.Reason),
		}
	}
	return out
}

func equityRecords(r *backtest.Result) []EquityRecord {
	out := make([]EquityRecord, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		out[i] = EquityRecord{
			RunID:         r.RunID,
			Date:          p.Date,
			Cash:          p.Cash,
			PositionValue: p.PositionValue,
			Equity:        p.Equity,
			Drawdown:      p.Drawdown,
			OpenPositions: p.OpenPositions,
		}
	}
	return out
}

func joinList(xs []string) string { return strings.Join(xs, ",") }

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
