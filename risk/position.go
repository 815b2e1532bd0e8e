package risk

import "github.com/shopspring/decimal"

// Inputs describe one fractional position-sizing decision.
type Inputs struct {
	Cash  decimal.Decimal
	Ratio float64 // fraction of cash committed per entry, 0 < Ratio <= 1
	Price float64
}

type Result struct {
	Quantity int64
	Budget   decimal.Decimal // Cash * Ratio
	Notional decimal.Decimal // Quantity * Price
}

// Calculate sizes an entry as floor(cash * ratio / price) whole shares.
// A non-positive price or ratio yields a zero quantity.
func Calculate(in Inputs) Result {
	if in.Price <= 0 || in.Ratio <= 0 || !in.Cash.IsPositive() {
		return Result{Budget: decimal.Zero, Notional: decimal.Zero}
	}

	price := decimal.NewFromFloat(in.Price)
	budget := in.Cash.Mul(decimal.NewFromFloat(in.Ratio))
	qty := budget.Div(price).Floor().IntPart()

	return Result{
		Quantity: qty,
		Budget:   budget,
		Notional: price.Mul(decimal.NewFromInt(qty)),
	}
}

// Levels returns the stop-loss and take-profit prices for an entry.
// A zero rate disables that side and yields a zero price.
func Levels(entry, stopRate, takeRate float64) (stop, take float64) {
	if stopRate > 0 {
		stop = entry * (1 - stopRate)
	}
	if takeRate > 0 {
		take = entry * (1 + takeRate)
	}
	return stop, take
}
