// Package risk holds the pure risk and performance functions of a backtest
// and the fractional position sizing the ledger uses.
//
// Nothing here returns NaN or Inf: every divide-by-zero path yields 0, and
// the one genuinely unbounded value (Sortino with no losing days) is carried
// by Ratio.Infinite instead of IEEE infinity.
package risk

import (
	"fmt"
	"math"
	"sort"
)

// TradingDays annualizes daily statistics.
const TradingDays = 252

// Ratio is a risk-adjusted ratio that may be unbounded.
type Ratio struct {
	Value    float64
	Infinite bool
}

func (r Ratio) String() string {
	if r.Infinite {
		return "inf"
	}
	return fmt.Sprintf("%.4f", r.Value)
}

// Metrics are the risk and return figures derived from one equity curve.
type Metrics struct {
	TotalReturn         float64
	AnnualReturn        float64
	Volatility          float64
	Sharpe              float64
	Sortino             Ratio
	Calmar              float64
	MaxDrawdown         float64
	MaxDrawdownDuration int // longest run of points below a prior peak
	VaR95               float64
	CVaR95              float64
}

// Compute derives every metric from an equity curve. days is the calendar
// length of the run, used to annualize the total return.
func Compute(equity []float64, initial float64, days int, riskFree float64) Metrics {
	var m Metrics
	if len(equity) == 0 {
		return m
	}

	rets := Returns(equity)
	m.TotalReturn = TotalReturn(initial, equity[len(equity)-1])
	m.AnnualReturn = AnnualReturn(m.TotalReturn, days)
	m.Volatility = Volatility(rets)
	m.Sharpe = Sharpe(rets, riskFree)
	m.Sortino = Sortino(rets, riskFree)
	m.MaxDrawdown, m.MaxDrawdownDuration = MaxDrawdown(equity)
	m.Calmar = Calmar(m.AnnualReturn, m.MaxDrawdown)
	m.VaR95 = VaR95(rets)
	m.CVaR95 = CVaR95(rets)
	return m
}

// Returns is the simple return series of equity. A step from a zero value
// is skipped rather than reported as infinite.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (equity[i]-prev)/prev)
	}
	return out
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev is the population standard deviation.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mu := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - mu) * (x - mu)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Volatility is the annualized standard deviation of daily returns.
func Volatility(returns []float64) float64 {
	return finite(StdDev(returns) * math.Sqrt(TradingDays))
}

func Sharpe(returns []float64, riskFree float64) float64 {
	vol := Volatility(returns)
	if vol == 0 {
		return 0
	}
	return finite((Mean(returns)*TradingDays - riskFree) / vol)
}

// Sortino uses only the losing days in the denominator. With no losing days
// at all the ratio is unbounded and comes back Infinite; with losing days of
// identical size the downside deviation is zero and so is the ratio.
func Sortino(returns []float64, riskFree float64) Ratio {
	if len(returns) == 0 {
		return Ratio{}
	}
	var neg []float64
	for _, r := range returns {
		if r < 0 {
			neg = append(neg, r)
		}
	}
	if len(neg) == 0 {
		return Ratio{Infinite: true}
	}
	down := StdDev(neg) * math.Sqrt(TradingDays)
	if down == 0 {
		return Ratio{}
	}
	return Ratio{Value: finite((Mean(returns)*TradingDays - riskFree) / down)}
}

// MaxDrawdown returns the deepest peak-to-trough decline as a fraction of the
// peak, clamped to [0,1], and the longest stretch of points spent below a
// previous peak.
func MaxDrawdown(equity []float64) (float64, int) {
	var peak, worst float64
	run, longest := 0, 0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if e < peak {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
		worst = max(worst, (peak-e)/peak)
	}
	return clamp01(worst), longest
}

// Drawdown is the decline of e from peak, clamped to [0,1].
func Drawdown(peak, e float64) float64 {
	if peak <= 0 {
		return 0
	}
	return clamp01((peak - e) / peak)
}

func Calmar(annualReturn, maxDrawdown float64) float64 {
	if maxDrawdown <= 0 {
		return 0
	}
	return finite(annualReturn / maxDrawdown)
}

func TotalReturn(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}
	return finite((final - initial) / initial)
}

// AnnualReturn compounds total over a year of calendar days. A total loss
// (or worse) annualizes to -1.
func AnnualReturn(total float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	if 1+total <= 0 {
		return -1
	}
	return finite(math.Pow(1+total, 365/float64(days)) - 1)
}

// Percentile uses linear interpolation between closest ranks, p in [0,100].
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)

	pos := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(s) {
		hi = len(s) - 1
	}
	frac := pos - float64(lo)
	return s[lo] + (s[hi]-s[lo])*frac
}

// VaR95 is the 5th percentile of returns.
func VaR95(returns []float64) float64 {
	return Percentile(returns, 5)
}

// CVaR95 is the mean of the returns at or below VaR95.
func CVaR95(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	v := VaR95(returns)
	var tail []float64
	for _, r := range returns {
		if r <= v {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return v
	}
	return Mean(tail)
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func clamp01(x float64) float64 {
	switch {
	case x < 0 || math.IsNaN(x):
		return 0
	case x > 1:
		return 1
	}
	return x
}
