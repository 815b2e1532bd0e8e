// Package backtest runs day-stepped trading simulations: a single pass over
// one or many symbols, a Monte Carlo reordering study of a pass's trades, or
// a walk-forward evaluation over contiguous sub-periods.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/montecarlo"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/strategies"
)

// Sink receives every finished result, for persistence or export.
type Sink interface {
	Record(ctx context.Context, r *Result) error
}

// Engine dispatches a Config to the right kind of run.
//
// Sources are shared by the concurrent windows of a walk-forward run and
// must be safe for concurrent use.
type Engine struct {
	Provider market.Provider
	Sources  []strategies.Source
	Sinks    []Sink
	Logger   *slog.Logger
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Run validates cfg before touching any state, runs it, and hands the result
// to every sink. A sink failure is returned together with the result.
func (e *Engine) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if e.Provider == nil {
		return nil, fmt.Errorf("%w: market data provider is required", ErrInvalidConfig)
	}
	if len(e.Sources) == 0 {
		return nil, fmt.Errorf("%w: at least one signal source is required", ErrInvalidConfig)
	}

	start := time.Now()
	log := e.logger().With("mode", string(cfg.Mode))

	res, err := e.dispatch(ctx, cfg, log)
	runDuration.WithLabelValues(string(cfg.Mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		runsTotal.WithLabelValues(string(cfg.Mode), "failed").Inc()
		return nil, err
	}

	outcome := "completed"
	if res.TerminatedEarly {
		outcome = "terminated_early"
	}
	runsTotal.WithLabelValues(string(cfg.Mode), outcome).Inc()

	res.RunID = id.New()
	res.Config = cfg
	res.Mode = cfg.Mode

	var sinkErrs []error
	for _, s := range e.Sinks {
		if err := s.Record(ctx, res); err != nil {
			log.Error("backtest: sink failed", "run", res.RunID, "err", err)
			sinkErrs = append(sinkErrs, err)
		}
	}
	if len(sinkErrs) > 0 {
		return res, fmt.Errorf("backtest: record run %s: %w", res.RunID, errors.Join(sinkErrs...))
	}
	return res, nil
}

func (e *Engine) dispatch(ctx context.Context, cfg Config, log *slog.Logger) (*Result, error) {
	switch cfg.Mode {
	case SingleStock, Portfolio:
		return newDriver(cfg, cfg.Start, cfg.End, e.Provider, e.Sources, log).Run(ctx)

	case MonteCarlo:
		res, err := newDriver(cfg, cfg.Start, cfg.End, e.Provider, e.Sources, log).Run(ctx)
		if err != nil {
			return nil, err
		}
		returns := montecarlo.TradeReturns(res.Trades)
		stats, err := montecarlo.Run(ctx, returns, cfg.InitialCapital, montecarlo.Options{
			Simulations: cfg.NumSimulations,
			Seed:        cfg.Seed,
		})
		if err != nil {
			return nil, err
		}
		log.Info("backtest: monte carlo done", "round_trips", len(returns),
			"simulations", stats.Simulations, "empty", stats.Empty)
		res.MonteCarlo = &stats
		return res, nil

	case WalkForward:
		return e.walkForward(ctx, cfg, log)
	}
	return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, cfg.Mode)
}
