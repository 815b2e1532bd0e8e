package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// bandSlack lets a close within 1% of a band count as touching it.
const bandSlack = 0.01

// Bollinger buys at the lower band and sells at the upper band. A close
// outside the band is a strong signal; one within bandSlack of it is a plain one.
type Bollinger struct {
	Period int
	K      float64
}

func NewBollinger(period int, k float64) (*Bollinger, error) {
	if period <= 1 {
		return nil, fmt.Errorf("bollinger: period must be above 1, got %d", period)
	}
	if k <= 0 {
		return nil, fmt.Errorf("bollinger: k must be positive, got %v", k)
	}
	return &Bollinger{Period: period, K: k}, nil
}

func (b *Bollinger) Name() string { return "bollinger" }

func (b *Bollinger) Signal(symbol string, w market.Window) (Signal, bool) {
	closes := w.Closes()
	band, err := indicators.Bollinger(closes, b.Period, b.K)
	if err != nil || band.Upper == band.Lower {
		return Signal{}, false
	}

	price := closes[len(closes)-1]
	switch {
	case price < band.Lower:
		return emit(b.Name(), symbol, w, StrongBuy, 0.8)
	case price <= band.Lower*(1+bandSlack):
		return emit(b.Name(), symbol, w, Buy, 0.6)
	case price > band.Upper:
		return emit(b.Name(), symbol, w, StrongSell, 0.8)
	case price >= band.Upper*(1-bandSlack):
		return emit(b.Name(), symbol, w, Sell, 0.6)
	}
	return Signal{}, false
}
