package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoundTrip is a closed position: every buy of one lot and the sell that
// closed it.
type RoundTrip struct {
	Lot        string
	Symbol     string
	Strategy   string // source of the opening buy
	Entry      time.Time
	Exit       time.Time
	Quantity   int64
	EntryPrice float64 // quantity-weighted over the lot's buys
	ExitPrice  float64
	Return     float64 // (ExitPrice - EntryPrice) / EntryPrice
	PnL        decimal.Decimal
	Reason     Reason
}

func (r RoundTrip) Won() bool { return r.PnL.IsPositive() }

type openLot struct {
	trip RoundTrip
	cost float64
	cash decimal.Decimal
}

// RoundTrips pairs every sell with the buys of the lot it closes, in trade
// order. Trades without a lot fall back to FIFO pairing by symbol. Open
// lots at the end of the log are not reported.
func RoundTrips(trades []Trade) []RoundTrip {
	open := make(map[string]*openLot)
	var out []RoundTrip

	for _, t := range trades {
		key := t.Lot
		if key == "" {
			key = "symbol:" + t.Symbol
		}

		switch t.Side {
		case Buy:
			lot, ok := open[key]
			if !ok {
				lot = &openLot{
					trip: RoundTrip{Lot: t.Lot, Symbol: t.Symbol, Strategy: t.Strategy(), Entry: t.Time},
					cash: decimal.Zero,
				}
				open[key] = lot
			}
			lot.trip.Quantity += t.Quantity
			lot.cost += t.Price * float64(t.Quantity)
			lot.cash = lot.cash.Add(t.CashDelta)

		case Sell:
			lot, ok := open[key]
			if !ok || lot.trip.Quantity == 0 {
				continue
			}
			delete(open, key)

			rt := lot.trip
			rt.EntryPrice = lot.cost / float64(rt.Quantity)
			rt.Exit = t.Time
			rt.ExitPrice = t.Price
			rt.Return = (t.Price - rt.EntryPrice) / rt.EntryPrice
			rt.PnL = lot.cash.Add(t.CashDelta)
			rt.Reason = t.Reason
			out = append(out, rt)
		}
	}
	return out
}
