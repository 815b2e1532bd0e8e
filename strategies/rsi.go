package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// RSI buys when the index climbs back out of the oversold zone and sells
// when it falls back out of the overbought zone.
type RSI struct {
	Period     int
	Oversold   float64
	Overbought float64
}

func NewRSI(period int, oversold, overbought float64) (*RSI, error) {
	if period <= 0 {
		return nil, fmt.Errorf("rsi: period must be positive, got %d", period)
	}
	if oversold <= 0 || overbought >= 100 || oversold >= overbought {
		return nil, fmt.Errorf("rsi: need 0 < oversold < overbought < 100, got %v/%v", oversold, overbought)
	}
	return &RSI{Period: period, Oversold: oversold, Overbought: overbought}, nil
}

func (r *RSI) Name() string { return "rsi" }

func (r *RSI) Signal(symbol string, w market.Window) (Signal, bool) {
	closes := w.Closes()
	if len(closes) < r.Period+2 {
		return Signal{}, false
	}

	cur, err := indicators.RSI(closes, r.Period)
	if err != nil {
		return Signal{}, false
	}
	prev, err := indicators.RSI(closes[:len(closes)-1], r.Period)
	if err != nil {
		return Signal{}, false
	}

	switch {
	case prev < r.Oversold && cur > r.Oversold:
		return emit(r.Name(), symbol, w, Buy, 0.7)
	case prev > r.Overbought && cur < r.Overbought:
		return emit(r.Name(), symbol, w, Sell, 0.7)
	}
	return Signal{}, false
}
