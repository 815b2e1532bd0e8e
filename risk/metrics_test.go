package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnsSkipsZeroBase(t *testing.T) {
	t.Parallel()

	r := Returns([]float64{100, 110, 0, 50, 55})
	require.Len(t, r, 3)
	assert.InDelta(t, 0.10, r[0], 1e-12)
	assert.InDelta(t, -1.0, r[1], 1e-12)
	assert.InDelta(t, 0.10, r[2], 1e-12)

	assert.Nil(t, Returns([]float64{100}))
}

func TestStdDevIsPopulation(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Zero(t, StdDev([]float64{3}))
	assert.Zero(t, Mean(nil))
}

func TestVolatilityAndSharpe(t *testing.T) {
	t.Parallel()

	rets := []float64{0.01, -0.01, 0.01, -0.01}
	assert.InDelta(t, 0.01*math.Sqrt(252), Volatility(rets), 1e-12)
	// mean 0, so sharpe is -rf / vol
	assert.InDelta(t, -0.03/(0.01*math.Sqrt(252)), Sharpe(rets, 0.03), 1e-12)

	assert.Zero(t, Sharpe([]float64{0.01, 0.01}, 0.03))
	assert.Zero(t, Volatility(nil))
}

func TestSortino(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rets     []float64
		infinite bool
		zero     bool
	}{
		{"no returns", nil, false, true},
		{"no losing days", []float64{0.01, 0.02}, true, false},
		{"equal losses", []float64{0.02, -0.01, -0.01}, false, true},
		{"mixed", []float64{0.03, -0.01, -0.02, 0.01}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Sortino(tt.rets, 0)
			assert.Equal(t, tt.infinite, got.Infinite)
			if tt.zero {
				assert.Zero(t, got.Value)
			}
			assert.False(t, math.IsNaN(got.Value) || math.IsInf(got.Value, 0))
		})
	}

	assert.Equal(t, "inf", Ratio{Infinite: true}.String())
	assert.Equal(t, "1.5000", Ratio{Value: 1.5}.String())
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	dd, dur := MaxDrawdown([]float64{100, 120, 90, 100, 130, 117})
	assert.InDelta(t, 0.25, dd, 1e-12)
	assert.Equal(t, 2, dur)

	dd, dur = MaxDrawdown([]float64{100, 101, 102})
	assert.Zero(t, dd)
	assert.Zero(t, dur)

	dd, _ = MaxDrawdown([]float64{100, -50})
	assert.Equal(t, 1.0, dd)

	assert.Equal(t, 0.5, Drawdown(200, 100))
	assert.Zero(t, Drawdown(0, 100))
}

func TestAnnualAndTotalReturn(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.10, TotalReturn(100, 110), 1e-12)
	assert.Zero(t, TotalReturn(0, 110))

	assert.InDelta(t, 0.10, AnnualReturn(0.10, 365), 1e-12)
	assert.InDelta(t, 0.21, AnnualReturn(0.10, 182), 0.01)
	assert.Equal(t, -1.0, AnnualReturn(-1, 100))
	assert.Zero(t, AnnualReturn(0.5, 0))
}

func TestCalmar(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, Calmar(0.2, 0.1), 1e-12)
	assert.Zero(t, Calmar(0.2, 0))
}

func TestPercentileAndVaR(t *testing.T) {
	t.Parallel()

	xs := []float64{5, 1, 4, 2, 3}
	assert.InDelta(t, 1.0, Percentile(xs, 0), 1e-12)
	assert.InDelta(t, 3.0, Percentile(xs, 50), 1e-12)
	assert.InDelta(t, 5.0, Percentile(xs, 100), 1e-12)
	assert.InDelta(t, 1.2, Percentile(xs, 5), 1e-12)
	// input is left untouched
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, xs)

	rets := []float64{-0.05, -0.02, 0.01, 0.03, 0.04}
	v := VaR95(rets)
	assert.InDelta(t, -0.044, v, 1e-12)
	assert.InDelta(t, -0.05, CVaR95(rets), 1e-12)

	assert.Zero(t, VaR95(nil))
	assert.Zero(t, CVaR95(nil))
}

func TestComputeNoTrades(t *testing.T) {
	t.Parallel()

	m := Compute([]float64{1000, 1000, 1000}, 1000, 30, 0.03)
	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.AnnualReturn)
	assert.Zero(t, m.Volatility)
	assert.Zero(t, m.Sharpe)
	assert.Zero(t, m.MaxDrawdown)
	assert.Zero(t, m.Calmar)
	// flat curve: no losing days
	assert.True(t, m.Sortino.Infinite)

	assert.Equal(t, Metrics{}, Compute(nil, 1000, 30, 0.03))
}

func TestComputeGrowth(t *testing.T) {
	t.Parallel()

	m := Compute([]float64{100, 110, 99, 121}, 100, 365, 0)
	assert.InDelta(t, 0.21, m.TotalReturn, 1e-12)
	assert.InDelta(t, 0.21, m.AnnualReturn, 1e-12)
	assert.InDelta(t, 0.10, m.MaxDrawdown, 1e-12)
	assert.InDelta(t, 2.1, m.Calmar, 1e-9)
	assert.Greater(t, m.Volatility, 0.0)
	assert.Greater(t, m.Sharpe, 0.0)
	assert.False(t, m.Sortino.Infinite)
}
