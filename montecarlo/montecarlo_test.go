package montecarlo

import (
	"context"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []float64{0.05, -0.03, 0.02, -0.08, 0.10, 0.01, -0.02}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		returns []float64
		sims    int
	}{
		{"no returns", nil, 1000},
		{"zero simulations", sample, 0},
		{"negative simulations", sample, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := Run(context.Background(), tt.returns, 1_000_000, Options{Simulations: tt.sims, Seed: 1})
			require.NoError(t, err)
			assert.Equal(t, Stats{Empty: true}, s)
		})
	}
}

func TestPermutationPreservesSum(t *testing.T) {
	t.Parallel()

	want := 0.0
	for _, r := range sample {
		want += r
	}

	trials, err := Trials(context.Background(), sample, 1_000_000, Options{Simulations: 200, Seed: 7, Workers: 4})
	require.NoError(t, err)
	require.Len(t, trials, 200)

	drawdowns := map[float64]struct{}{}
	for _, tr := range trials {
		assert.InDelta(t, want, tr.ReturnSum, 1e-12)
		assert.GreaterOrEqual(t, tr.MaxDrawdown, 0.0)
		assert.LessOrEqual(t, tr.MaxDrawdown, 1.0)
		drawdowns[tr.MaxDrawdown] = struct{}{}
	}
	// reordering changes the path even though the sum is fixed
	assert.Greater(t, len(drawdowns), 1)
}

func TestFinalCapitalIsOrderIndependent(t *testing.T) {
	t.Parallel()

	trials, err := Trials(context.Background(), sample, 1000, Options{Simulations: 50, Seed: 3})
	require.NoError(t, err)
	for _, tr := range trials[1:] {
		assert.InDelta(t, trials[0].FinalCapital, tr.FinalCapital, 1e-6)
	}
}

func TestSeedIsReproducible(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := Trials(ctx, sample, 1000, Options{Simulations: 100, Seed: 42, Workers: 1})
	require.NoError(t, err)
	b, err := Trials(ctx, sample, 1000, Options{Simulations: 100, Seed: 42, Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	trials := []Trial{
		{TotalReturn: 0.10, MaxDrawdown: 0.05, SharpeProxy: 2},
		{TotalReturn: -0.20, MaxDrawdown: 0.25, SharpeProxy: -0.8},
		{TotalReturn: 0.30, MaxDrawdown: 0.10, SharpeProxy: 3},
		{TotalReturn: 0.00, MaxDrawdown: 0.00, SharpeProxy: 0},
	}
	s := Aggregate(trials)
	assert.False(t, s.Empty)
	assert.Equal(t, 4, s.Simulations)
	assert.InDelta(t, 0.05, s.MeanReturn, 1e-12)
	assert.InDelta(t, -0.20, s.MinReturn, 1e-12)
	assert.InDelta(t, 0.30, s.MaxReturn, 1e-12)
	assert.InDelta(t, 0.10, s.MeanDrawdown, 1e-12)
	assert.InDelta(t, 0.25, s.MaxDrawdown, 1e-12)
	assert.InDelta(t, 1.05, s.MeanSharpe, 1e-12)
	assert.InDelta(t, 0.5, s.WinRate, 1e-12)
	// sorted: -0.2, 0, 0.1, 0.3; p5 at rank 0.15
	assert.InDelta(t, -0.17, s.VaR95, 1e-12)
	assert.InDelta(t, -0.20, s.CVaR95, 1e-12)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, sample, 1000, Options{Simulations: 100, Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTradeReturns(t *testing.T) {
	t.Parallel()

	l := ledger.New(ledger.Config{InitialCapital: decimal.NewFromInt(1_000_000), PositionSizeRatio: 0.1})
	t0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err := l.Buy("AAA", 100, t0, nil)
	require.NoError(t, err)
	_, err = l.Sell("AAA", 110, t0.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	_, err = l.Buy("AAA", 200, t0.AddDate(0, 0, 2), nil)
	require.NoError(t, err)
	_, err = l.Sell("AAA", 150, t0.AddDate(0, 0, 3), nil)
	require.NoError(t, err)

	got := TradeReturns(l.Trades())
	require.Len(t, got, 2)
	assert.InDelta(t, 0.10, got[0], 1e-12)
	assert.InDelta(t, -0.25, got[1], 1e-12)
}

func TestTradeReturnsAveragesPyramidedLot(t *testing.T) {
	t.Parallel()

	l := ledger.New(ledger.Config{
		InitialCapital:    decimal.NewFromInt(1_000_000),
		PositionSizeRatio: 0.1,
		AllowPyramiding:   true,
	})
	t0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	first, err := l.Buy("AAA", 100, t0, nil)
	require.NoError(t, err)
	second, err := l.Buy("AAA", 200, t0.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	_, err = l.Sell("AAA", 180, t0.AddDate(0, 0, 2), nil)
	require.NoError(t, err)

	// One return per closed lot, priced against the quantity-weighted
	// entry rather than the earliest buy.
	q1, q2 := float64(first.Quantity), float64(second.Quantity)
	entry := (100*q1 + 200*q2) / (q1 + q2)

	got := TradeReturns(l.Trades())
	require.Len(t, got, 1)
	assert.InDelta(t, (180-entry)/entry, got[0], 1e-12)
	assert.NotEqual(t, 0.80, got[0])
}
