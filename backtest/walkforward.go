package backtest

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Span is one contiguous walk-forward window, both ends inclusive.
type Span struct {
	Start time.Time
	End   time.Time
}

// SplitWindows cuts [start, end] into k contiguous windows of equal whole
// days. The last window takes the remainder, so the windows cover the range
// exactly with no overlap. k is clamped to the number of days in range.
func SplitWindows(start, end time.Time, k int) []Span {
	start, end = market.DateOf(start), market.DateOf(end)
	if end.Before(start) {
		return nil
	}
	if k <= 0 {
		k = DefaultWindowCount
	}
	total := int(end.Sub(start).Hours()/24) + 1
	k = min(k, total)
	size := total / k

	out := make([]Span, k)
	for i := range k {
		s := start.AddDate(0, 0, i*size)
		e := s.AddDate(0, 0, size-1)
		if i == k-1 {
			e = end
		}
		out[i] = Span{Start: s, End: e}
	}
	return out
}

// walkForward runs one fresh pass per window, concurrently and each from the
// same starting capital, then merges them. Windows without data are logged
// and left out.
func (e *Engine) walkForward(ctx context.Context, cfg Config, log *slog.Logger) (*Result, error) {
	spans := SplitWindows(cfg.Start, cfg.End, cfg.windows())
	results := make([]*Result, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, span := range spans {
		g.Go(func() error {
			wlog := log.With("window", i+1, "of", len(spans))
			d := newDriver(cfg, span.Start, span.End, e.Provider, e.Sources, wlog)
			res, err := d.Run(gctx)
			if errors.Is(err, ErrNoMarketData) {
				wlog.Warn("backtest: walk-forward window skipped", "err", err)
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Merge(cfg, spans, results, log), nil
}

// Merge stitches per-window results into one chronologically ordered result
// and derives every aggregate again from the combined trades and curve.
// results[i] may be nil for a skipped window.
func Merge(cfg Config, spans []Span, results []*Result, log *slog.Logger) *Result {
	if log == nil {
		log = slog.Default()
	}

	merged := &Result{
		Config:         cfg,
		Mode:           cfg.Mode,
		InitialCapital: decimal.NewFromFloat(cfg.InitialCapital),
	}
	signals := map[string]int{}

	for i, span := range spans {
		sum := WindowSummary{Index: i + 1, Start: span.Start, End: span.End}
		var res *Result
		if i < len(results) {
			res = results[i]
		}
		if res == nil {
			sum.Skipped = true
			sum.FinalCapital = merged.InitialCapital
			merged.Windows = append(merged.Windows, sum)
			continue
		}

		sum.Trades = len(res.Trades)
		sum.FinalCapital = res.FinalCapital
		sum.TotalReturn = res.Metrics.TotalReturn
		sum.TerminatedEarly = res.TerminatedEarly
		merged.Windows = append(merged.Windows, sum)

		merged.Trades = append(merged.Trades, res.Trades...)
		merged.EquityCurve = append(merged.EquityCurve, res.EquityCurve...)
		merged.TerminatedEarly = merged.TerminatedEarly || res.TerminatedEarly
		merged.SkippedDays += res.SkippedDays
		merged.Rejected += res.Rejected
		for _, s := range res.Strategies {
			signals[s.Name] += s.Signals
		}
	}

	sort.SliceStable(merged.Trades, func(i, j int) bool {
		return merged.Trades[i].Time.Before(merged.Trades[j].Time)
	})
	sort.SliceStable(merged.EquityCurve, func(i, j int) bool {
		return merged.EquityCurve[i].Date.Before(merged.EquityCurve[j].Date)
	})
	restamp(merged.EquityCurve)
	merged.finalize(signals)

	log.Info("backtest: walk-forward merged", "windows", len(spans),
		"trades", len(merged.Trades), "days", len(merged.EquityCurve))
	return merged
}

// windowReturns lists each window's total return, skipped windows excluded.
func windowReturns(ws []WindowSummary) []float64 {
	var out []float64
	for _, w := range ws {
		if !w.Skipped {
			out = append(out, w.TotalReturn)
		}
	}
	return out
}

// consistency is the fraction of non-skipped windows that made money.
func consistency(ws []WindowSummary) float64 {
	rets := windowReturns(ws)
	if len(rets) == 0 {
		return 0
	}
	pos := 0
	for _, r := range rets {
		if r > 0 {
			pos++
		}
	}
	return float64(pos) / float64(len(rets))
}

// meanWindowReturn averages the window returns for display only; the merged
// metrics never use it.
func meanWindowReturn(ws []WindowSummary) float64 {
	return risk.Mean(windowReturns(ws))
}
