// Package montecarlo measures how much a backtest's outcome depends on the
// order its trades happened in. Each trial replays the realized round-trip
// returns in a random order and compounds them from the starting capital.
package montecarlo

import (
	"context"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rustyeddy/backtester/ledger"
	"github.com/rustyeddy/backtester/risk"
	"golang.org/x/sync/errgroup"
)

// DefaultSimulations is the trial count used when none is configured.
const DefaultSimulations = 1000

var (
	trialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backtester_montecarlo_trials_total",
		Help: "Monte Carlo reordering trials completed",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backtester_montecarlo_run_duration_seconds",
		Help:    "Wall time of one Monte Carlo batch",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	})
)

type Options struct {
	Simulations int
	Seed        int64 // 0 seeds from the clock
	Workers     int   // 0 means runtime.NumCPU()
}

// Trial is the outcome of one reordering.
type Trial struct {
	FinalCapital float64
	TotalReturn  float64
	MaxDrawdown  float64
	SharpeProxy  float64 // TotalReturn / MaxDrawdown, 0 without a drawdown
	ReturnSum    float64 // sum of the permuted returns
}

// Stats aggregate a batch of trials. Empty is set when there was nothing to
// simulate; every other field is then zero.
type Stats struct {
	Simulations  int
	MeanReturn   float64
	StdReturn    float64
	MinReturn    float64
	MaxReturn    float64
	MeanDrawdown float64
	MaxDrawdown  float64
	MeanSharpe   float64
	WinRate      float64 // fraction of trials ending above the starting capital
	VaR95        float64
	CVaR95       float64
	Empty        bool
}

// TradeReturns extracts the round-trip returns of a trade log in exit order.
func TradeReturns(trades []ledger.Trade) []float64 {
	trips := ledger.RoundTrips(trades)
	out := make([]float64, len(trips))
	for i, rt := range trips {
		out[i] = rt.Return
	}
	return out
}

// Run executes the trials and aggregates them. Only caller cancellation is
// reported as an error.
func Run(ctx context.Context, returns []float64, capital float64, opts Options) (Stats, error) {
	trials, err := Trials(ctx, returns, capital, opts)
	if err != nil {
		return Stats{Empty: true}, err
	}
	return Aggregate(trials), nil
}

// Trials runs opts.Simulations independent reorderings of returns on a
// bounded worker pool. Every trial draws from its own generator derived from
// the seed, so a fixed seed reproduces the batch regardless of scheduling.
func Trials(ctx context.Context, returns []float64, capital float64, opts Options) ([]Trial, error) {
	if len(returns) == 0 || opts.Simulations <= 0 {
		return nil, nil
	}

	start := time.Now()
	defer func() { runDuration.Observe(time.Since(start).Seconds()) }()

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	trials := make([]Trial, opts.Simulations)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range opts.Simulations {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(uint64(seed), uint64(i)))
			trials[i] = runTrial(returns, capital, rng)
			trialsTotal.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return trials, nil
}

func runTrial(returns []float64, capital float64, rng *rand.Rand) Trial {
	perm := make([]float64, len(returns))
	copy(perm, returns)
	rng.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	eq := capital
	peak := capital
	var worst, sum float64
	for _, r := range perm {
		sum += r
		eq *= 1 + r
		if eq > peak {
			peak = eq
		}
		worst = max(worst, risk.Drawdown(peak, eq))
	}

	t := Trial{
		FinalCapital: eq,
		TotalReturn:  risk.TotalReturn(capital, eq),
		MaxDrawdown:  worst,
		ReturnSum:    sum,
	}
	if worst > 0 {
		t.SharpeProxy = t.TotalReturn / worst
	}
	return t
}

// Aggregate folds trials into Stats.
func Aggregate(trials []Trial) Stats {
	if len(trials) == 0 {
		return Stats{Empty: true}
	}

	totals := make([]float64, len(trials))
	var ddSum, sharpeSum float64
	s := Stats{Simulations: len(trials), MinReturn: trials[0].TotalReturn, MaxReturn: trials[0].TotalReturn}
	wins := 0
	for i, t := range trials {
		totals[i] = t.TotalReturn
		ddSum += t.MaxDrawdown
		sharpeSum += t.SharpeProxy
		s.MinReturn = min(s.MinReturn, t.TotalReturn)
		s.MaxReturn = max(s.MaxReturn, t.TotalReturn)
		s.MaxDrawdown = max(s.MaxDrawdown, t.MaxDrawdown)
		if t.TotalReturn > 0 {
			wins++
		}
	}

	n := float64(len(trials))
	s.MeanReturn = risk.Mean(totals)
	s.StdReturn = risk.StdDev(totals)
	s.MeanDrawdown = ddSum / n
	s.MeanSharpe = sharpeSum / n
	s.WinRate = float64(wins) / n
	s.VaR95 = risk.VaR95(totals)
	s.CVaR95 = risk.CVaR95(totals)
	return s
}
