package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/backtester/ledger"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
)

// State is where a Driver is in its one-shot lifecycle.
type State int

const (
	Initialized State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrNoMarketData = errors.New("backtest: no market data in range")
	ErrDriverUsed   = errors.New("backtest: driver already ran")
)

// Driver steps one simulation pass over a date range, one weekday at a time.
// It owns its ledger and equity curve; a Driver runs once.
type Driver struct {
	cfg      Config
	from, to time.Time
	symbols  []string
	provider market.Provider
	sources  []strategies.Source
	log      *slog.Logger

	state   State
	ledger  *ledger.Ledger
	series  map[string]*market.Series
	curve   []EquityPoint
	peak    float64
	signals map[string]int

	rejected   int
	skipped    int
	terminated bool
}

// NewDriver validates cfg and prepares a pass over [cfg.Start, cfg.End].
// A nil logger uses slog.Default().
func NewDriver(cfg Config, provider market.Provider, sources []strategies.Source, log *slog.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: market data provider is required", ErrInvalidConfig)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: at least one signal source is required", ErrInvalidConfig)
	}
	return newDriver(cfg, cfg.Start, cfg.End, provider, sources, log), nil
}

func newDriver(cfg Config, from, to time.Time, provider market.Provider, sources []strategies.Source, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{
		cfg:      cfg,
		from:     market.DateOf(from),
		to:       market.DateOf(to),
		symbols:  cfg.driven(),
		provider: provider,
		sources:  sources,
		log:      log,
		state:    Initialized,
		ledger: ledger.New(ledger.Config{
			InitialCapital:    decimal.NewFromFloat(cfg.InitialCapital),
			CommissionRate:    cfg.CommissionRate,
			SlippageRate:      cfg.SlippageRate,
			MinTradeAmount:    cfg.MinTradeAmount,
			MaxPositions:      cfg.MaxPositions,
			PositionSizeRatio: cfg.PositionSizeRatio,
			StopLossRate:      cfg.StopLossRate,
			TakeProfitRate:    cfg.TakeProfitRate,
			AllowPyramiding:   cfg.AllowPyramiding,
		}),
		series:  make(map[string]*market.Series),
		signals: make(map[string]int),
	}
}

func (d *Driver) State() State { return d.state }

// Run simulates every weekday in range that has a bar for at least one
// driven symbol. ctx is checked between days.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.state != Initialized {
		return nil, ErrDriverUsed
	}
	d.state = Running

	d.log.Info("backtest: pass started",
		"from", market.FormatDate(d.from), "to", market.FormatDate(d.to),
		"symbols", d.symbols, "sources", len(d.sources))

	if err := d.load(ctx); err != nil {
		d.state = Failed
		return nil, err
	}

	days := d.tradingDays()
	if len(days) == 0 {
		d.state = Failed
		return nil, fmt.Errorf("%w: %s..%s", ErrNoMarketData, market.FormatDate(d.from), market.FormatDate(d.to))
	}

	for i, day := range days {
		if err := ctx.Err(); err != nil {
			d.state = Failed
			return nil, err
		}
		d.step(day, i == len(days)-1)
		daysSimulated.Inc()
		if d.terminated {
			break
		}
	}

	d.state = Completed
	res := d.result()
	d.log.Info("backtest: pass completed",
		"days", len(res.EquityCurve), "trades", len(res.Trades),
		"final", res.FinalCapital.StringFixed(2), "terminated_early", res.TerminatedEarly)
	return res, nil
}

// load builds a validated series per driven symbol. History before the
// range is kept so signal sources get their warm-up bars.
func (d *Driver) load(ctx context.Context) error {
	for _, sym := range d.symbols {
		bars, err := d.provider.Bars(ctx, sym, time.Time{}, d.to)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.Warn("backtest: no data for symbol", "symbol", sym, "err", err)
			continue
		}
		s, err := market.NewSeries(sym, bars, market.DefaultTolerance)
		if err != nil {
			d.log.Warn("backtest: symbol dropped", "symbol", sym, "err", err)
			continue
		}
		if n := len(s.Rejected); n > 0 {
			d.log.Warn("backtest: invalid bars dropped", "symbol", sym, "count", n, "first", s.Rejected[0])
		}
		d.series[sym] = s
	}
	return nil
}

func (d *Driver) tradingDays() []time.Time {
	var days []time.Time
	for day := d.from; !day.After(d.to); day = day.AddDate(0, 0, 1) {
		if !market.IsWeekday(day) {
			continue
		}
		if len(d.barsOn(day)) == 0 {
			d.skipped++
			continue
		}
		days = append(days, day)
	}
	return days
}

func (d *Driver) barsOn(day time.Time) map[string]market.Bar {
	out := make(map[string]market.Bar, len(d.symbols))
	for _, sym := range d.symbols {
		s, ok := d.series[sym]
		if !ok {
			continue
		}
		if b, ok := s.Bar(day); ok {
			out[sym] = b
		}
	}
	return out
}

// step runs one trading day in fixed order: signals, buys, sells,
// stop/take, mark, equity point, circuit breaker.
func (d *Driver) step(day time.Time, last bool) {
	today := d.barsOn(day)

	// Positions that will be force-closed at today's close take no
	// strategy orders today.
	preempted := map[string]bool{}
	for _, p := range d.ledger.Positions() {
		if b, ok := today[p.Symbol]; ok && d.ledger.Triggered(p.Symbol, b.Close) {
			preempted[p.Symbol] = true
		}
	}

	sigs := d.collect(day, today)

	for _, sig := range sigs {
		if sig.Action.IsBuy() {
			d.route(day, sig, preempted)
		}
	}
	for _, sig := range sigs {
		if sig.Action.IsSell() {
			d.route(day, sig, preempted)
		}
	}

	for _, p := range d.ledger.Positions() {
		b, ok := today[p.Symbol]
		if !ok {
			continue
		}
		if t, fired := d.ledger.CheckStopTake(p.Symbol, b.Close, day); fired {
			observeTrade(t)
			d.log.Info("backtest: forced exit", "date", market.FormatDate(day),
				"symbol", t.Symbol, "reason", t.Reason, "price", t.Price, "qty", t.Quantity)
		}
	}

	for _, p := range d.ledger.Positions() {
		if b, ok := today[p.Symbol]; ok {
			d.ledger.MarkToMarket(p.Symbol, b.Close, day)
		}
	}

	if last && d.cfg.CloseAtEnd {
		d.closeAll(day)
	}

	d.record(day)
}

// collect asks every source about every symbol with a bar today. Fields a
// source leaves empty are filled from the day's bar.
func (d *Driver) collect(day time.Time, today map[string]market.Bar) []strategies.Signal {
	var out []strategies.Signal
	for _, sym := range d.symbols {
		b, ok := today[sym]
		if !ok {
			continue
		}
		w, ok := d.series[sym].WindowAt(day)
		if !ok || (d.cfg.MinHistory > 0 && w.Len() < d.cfg.MinHistory) {
			continue
		}

		for _, src := range d.sources {
			sig, ok := src.Signal(sym, w)
			if !ok {
				continue
			}
			if sig.Symbol == "" {
				sig.Symbol = sym
			}
			if sig.Time.IsZero() {
				sig.Time = day
			}
			if sig.Price == 0 {
				sig.Price = b.Close
			}
			if sig.Strategy == "" {
				sig.Strategy = src.Name()
			}
			if sig.Symbol != sym {
				d.log.Warn("backtest: signal for another symbol dropped",
					"source", src.Name(), "asked", sym, "got", sig.Symbol)
				continue
			}
			if err := sig.Validate(); err != nil {
				d.log.Warn("backtest: invalid signal dropped", "source", src.Name(), "err", err)
				continue
			}
			d.signals[sig.Strategy]++
			if sig.Action == strategies.Hold {
				continue
			}
			out = append(out, sig)
		}
	}
	return out
}

func (d *Driver) route(day time.Time, sig strategies.Signal, preempted map[string]bool) {
	if preempted[sig.Symbol] {
		d.log.Debug("backtest: signal pre-empted by stop/take", "date", market.FormatDate(day),
			"symbol", sig.Symbol, "action", sig.Action, "source", sig.Strategy)
		return
	}

	var (
		t   ledger.Trade
		err error
	)
	if sig.Action.IsBuy() {
		t, err = d.ledger.Buy(sig.Symbol, sig.Price, day, &sig)
	} else {
		t, err = d.ledger.Sell(sig.Symbol, sig.Price, day, &sig)
	}
	if err != nil {
		d.rejected++
		observeRejection(err)
		d.log.Debug("backtest: order rejected", "date", market.FormatDate(day), "err", err)
		return
	}

	observeTrade(t)
	d.log.Debug("backtest: filled", "date", market.FormatDate(day), "symbol", t.Symbol,
		"side", t.Side, "qty", t.Quantity, "price", t.Price, "source", sig.Strategy)
}

func (d *Driver) closeAll(day time.Time) {
	for _, p := range d.ledger.Positions() {
		t, err := d.ledger.Close(p.Symbol, p.MarkPrice, day, ledger.ReasonEndOfRun)
		if err != nil {
			d.log.Warn("backtest: end-of-run close failed", "symbol", p.Symbol, "err", err)
			continue
		}
		observeTrade(t)
	}
}

func (d *Driver) record(day time.Time) {
	cash := d.ledger.Cash()
	pv := d.ledger.PositionValue()
	eq := cash.Add(pv)

	f := eq.InexactFloat64()
	d.peak = max(d.peak, f)
	dd := risk.Drawdown(d.peak, f)

	d.curve = append(d.curve, EquityPoint{
		Date:          day,
		Cash:          cash,
		PositionValue: pv,
		Equity:        eq,
		Drawdown:      dd,
		OpenPositions: d.ledger.OpenCount(),
	})

	if d.cfg.MaxDrawdownLimit > 0 && dd >= d.cfg.MaxDrawdownLimit {
		d.terminated = true
		d.log.Warn("backtest: max drawdown reached, stopping early",
			"date", market.FormatDate(day), "drawdown", dd, "limit", d.cfg.MaxDrawdownLimit)
	}
}

func (d *Driver) result() *Result {
	curve := make([]EquityPoint, len(d.curve))
	copy(curve, d.curve)

	r := &Result{
		Config:          d.cfg,
		Mode:            d.cfg.Mode,
		InitialCapital:  decimal.NewFromFloat(d.cfg.InitialCapital),
		Trades:          d.ledger.Trades(),
		EquityCurve:     curve,
		TerminatedEarly: d.terminated,
		SkippedDays:     d.skipped,
		Rejected:        d.rejected,
	}
	r.finalize(d.signals)
	return r
}
