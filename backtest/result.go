package backtest

import (
	"sort"
	"time"

	"github.com/rustyeddy/backtester/ledger"
	"github.com/rustyeddy/backtester/montecarlo"
	"github.com/rustyeddy/backtester/risk"
	"github.com/shopspring/decimal"
)

// EquityPoint is the portfolio at the close of one simulated day.
// Equity is exactly Cash + PositionValue.
type EquityPoint struct {
	Date          time.Time
	Cash          decimal.Decimal
	PositionValue decimal.Decimal
	Equity        decimal.Decimal
	Drawdown      float64 // from the running peak, in [0,1]
	OpenPositions int
}

// TradeStats summarize the trade log. Win/loss figures count closed round
// trips, not individual fills.
type TradeStats struct {
	Trades       int
	Buys         int
	Sells        int
	RoundTrips   int
	Wins         int
	Losses       int
	WinRate      float64 // fraction of round trips, [0,1]
	GrossProfit  decimal.Decimal
	GrossLoss    decimal.Decimal // positive magnitude
	NetProfit    decimal.Decimal
	ProfitFactor float64 // GrossProfit / GrossLoss, 0 without losses
	AvgWin       decimal.Decimal
	AvgLoss      decimal.Decimal
	Commission   decimal.Decimal
	Slippage     decimal.Decimal
}

// StrategyStats attribute activity and realized P/L to one signal source.
type StrategyStats struct {
	Name       string
	Signals    int
	Trades     int
	RoundTrips int
	Wins       int
	PnL        decimal.Decimal
}

// WindowSummary describes one walk-forward window.
type WindowSummary struct {
	Index           int
	Start           time.Time
	End             time.Time
	Trades          int
	FinalCapital    decimal.Decimal
	TotalReturn     float64
	TerminatedEarly bool
	Skipped         bool // no market data in the window
}

// Result is the finished record of a run. It is built once and handed to
// the caller; the engine keeps no reference to it.
type Result struct {
	RunID           string
	Config          Config
	Mode            Mode
	Start           time.Time // first simulated day
	End             time.Time // last simulated day
	InitialCapital  decimal.Decimal
	FinalCapital    decimal.Decimal
	Trades          []ledger.Trade
	RoundTrips      []ledger.RoundTrip
	EquityCurve     []EquityPoint
	Metrics         risk.Metrics
	TradeStats      TradeStats
	Strategies      []StrategyStats
	MonteCarlo      *montecarlo.Stats
	Windows         []WindowSummary
	TerminatedEarly bool
	SkippedDays     int // weekdays without any bar
	Rejected        int // orders the ledger refused
}

// Days is the calendar length of the simulated range.
func (r *Result) Days() int {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// finalize derives everything that follows from the trades and equity
// curve. signals counts emitted signals per source name.
func (r *Result) finalize(signals map[string]int) {
	if n := len(r.EquityCurve); n > 0 {
		r.Start = r.EquityCurve[0].Date
		r.End = r.EquityCurve[n-1].Date
		r.FinalCapital = r.EquityCurve[n-1].Equity
	} else {
		r.FinalCapital = r.InitialCapital
	}

	r.RoundTrips = ledger.RoundTrips(r.Trades)
	r.TradeStats = tradeStats(r.Trades, r.RoundTrips)
	r.Strategies = strategyStats(signals, r.Trades, r.RoundTrips)

	equity := make([]float64, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		equity[i] = p.Equity.InexactFloat64()
	}
	r.Metrics = risk.Compute(equity, r.InitialCapital.InexactFloat64(), r.Days(), r.Config.RiskFreeRate)
}

// restamp recomputes the running peak and drawdown of each point in order.
func restamp(curve []EquityPoint) {
	peak := 0.0
	for i := range curve {
		eq := curve[i].Equity.InexactFloat64()
		peak = max(peak, eq)
		curve[i].Drawdown = risk.Drawdown(peak, eq)
	}
}

func tradeStats(trades []ledger.Trade, trips []ledger.RoundTrip) TradeStats {
	s := TradeStats{
		Trades:      len(trades),
		RoundTrips:  len(trips),
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
		NetProfit:   decimal.Zero,
		AvgWin:      decimal.Zero,
		AvgLoss:     decimal.Zero,
		Commission:  decimal.Zero,
		Slippage:    decimal.Zero,
	}
	for _, t := range trades {
		if t.Side == ledger.Buy {
			s.Buys++
		} else {
			s.Sells++
		}
		s.Commission = s.Commission.Add(t.Commission)
		s.Slippage = s.Slippage.Add(t.Slippage)
	}

	for _, rt := range trips {
		switch {
		case rt.PnL.IsPositive():
			s.Wins++
			s.GrossProfit = s.GrossProfit.Add(rt.PnL)
		case rt.PnL.IsNegative():
			s.Losses++
			s.GrossLoss = s.GrossLoss.Add(rt.PnL.Neg())
		}
	}
	s.NetProfit = s.GrossProfit.Sub(s.GrossLoss)

	if s.RoundTrips > 0 {
		s.WinRate = float64(s.Wins) / float64(s.RoundTrips)
	}
	if s.Wins > 0 {
		s.AvgWin = s.GrossProfit.Div(decimal.NewFromInt(int64(s.Wins)))
	}
	if s.Losses > 0 {
		s.AvgLoss = s.GrossLoss.Div(decimal.NewFromInt(int64(s.Losses)))
	}
	if s.GrossLoss.IsPositive() {
		s.ProfitFactor = s.GrossProfit.Div(s.GrossLoss).InexactFloat64()
	}
	return s
}

func strategyStats(signals map[string]int, trades []ledger.Trade, trips []ledger.RoundTrip) []StrategyStats {
	by := map[string]*StrategyStats{}
	get := func(name string) *StrategyStats {
		s, ok := by[name]
		if !ok {
			s = &StrategyStats{Name: name, PnL: decimal.Zero}
			by[name] = s
		}
		return s
	}

	for name, n := range signals {
		get(name).Signals += n
	}
	for _, t := range trades {
		if name := t.Strategy(); name != "" {
			get(name).Trades++
		}
	}
	for _, rt := range trips {
		if rt.Strategy == "" {
			continue
		}
		s := get(rt.Strategy)
		s.RoundTrips++
		s.PnL = s.PnL.Add(rt.PnL)
		if rt.Won() {
			s.Wins++
		}
	}

	out := make([]StrategyStats, 0, len(by))
	for _, s := range by {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
