package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

type averager func([]float64, int) (float64, error)

// Cross buys when the fast average crosses above the slow one and sells on
// the opposite cross. Nothing is emitted between crosses.
type Cross struct {
	Fast int
	Slow int

	name string
	avg  averager
}

// NewMACross crosses simple moving averages (golden / dead cross).
func NewMACross(fast, slow int) (*Cross, error) {
	return newCross("ma-cross", fast, slow, indicators.SMA)
}

// NewEMACross crosses exponential moving averages.
func NewEMACross(fast, slow int) (*Cross, error) {
	return newCross("ema-cross", fast, slow, indicators.EMA)
}

func newCross(name string, fast, slow int, avg averager) (*Cross, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("%s: periods must be positive, got fast=%d slow=%d", name, fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("%s: fast period %d must be below slow period %d", name, fast, slow)
	}
	return &Cross{Fast: fast, Slow: slow, name: name, avg: avg}, nil
}

func (c *Cross) Name() string { return c.name }

func (c *Cross) Signal(symbol string, w market.Window) (Signal, bool) {
	closes := w.Closes()
	if len(closes) < c.Slow+1 {
		return Signal{}, false
	}

	fast, slow, err := c.spread(closes)
	if err != nil {
		return Signal{}, false
	}
	prevFast, prevSlow, err := c.spread(closes[:len(closes)-1])
	if err != nil {
		return Signal{}, false
	}

	switch {
	case prevFast <= prevSlow && fast > slow:
		return emit(c.name, symbol, w, Buy, 0.7)
	case prevFast >= prevSlow && fast < slow:
		return emit(c.name, symbol, w, Sell, 0.7)
	}
	return Signal{}, false
}

func (c *Cross) spread(closes []float64) (float64, float64, error) {
	fast, err := c.avg(closes, c.Fast)
	if err != nil {
		return 0, 0, err
	}
	slow, err := c.avg(closes, c.Slow)
	if err != nil {
		return 0, 0, err
	}
	return fast, slow, nil
}
