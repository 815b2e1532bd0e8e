// Package ledger is the cash, position and trade book of one simulation run.
//
// Money is kept in decimal so that equity is always exactly cash plus the
// marked value of the open positions. A Ledger is not safe for concurrent
// use; each run owns its own.
package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
)

// Config holds the execution rules the ledger enforces.
type Config struct {
	InitialCapital    decimal.Decimal
	CommissionRate    float64
	SlippageRate      float64
	MinTradeAmount    float64
	MaxPositions      int // 0 means unlimited
	PositionSizeRatio float64
	StopLossRate      float64
	TakeProfitRate    float64
	AllowPyramiding   bool
}

type Ledger struct {
	cfg        Config
	commission decimal.Decimal
	slippage   decimal.Decimal
	minTrade   decimal.Decimal

	cash      decimal.Decimal
	positions map[string]*Position
	trades    []Trade
}

func New(cfg Config) *Ledger {
	return &Ledger{
		cfg:        cfg,
		commission: decimal.NewFromFloat(cfg.CommissionRate),
		slippage:   decimal.NewFromFloat(cfg.SlippageRate),
		minTrade:   decimal.NewFromFloat(cfg.MinTradeAmount),
		cash:       cfg.InitialCapital,
		positions:  make(map[string]*Position),
	}
}

func (l *Ledger) Config() Config { return l.cfg }

// Buy opens a position in symbol, or averages into the open one when
// pyramiding is allowed. The quantity is sized from current cash.
func (l *Ledger) Buy(symbol string, price float64, ts time.Time, sig *strategies.Signal) (Trade, error) {
	const op = "buy"
	if !validPrice(price) {
		return Trade{}, reject(op, symbol, ErrInvalidPrice, "%v", price)
	}

	pos, open := l.positions[symbol]
	if open && !l.cfg.AllowPyramiding {
		return Trade{}, reject(op, symbol, ErrAlreadyOpen, "")
	}
	if !open && l.cfg.MaxPositions > 0 && len(l.positions) >= l.cfg.MaxPositions {
		return Trade{}, reject(op, symbol, ErrMaxPositions, "%d open", len(l.positions))
	}

	sized := risk.Calculate(risk.Inputs{Cash: l.cash, Ratio: l.cfg.PositionSizeRatio, Price: price})
	if sized.Quantity <= 0 {
		return Trade{}, reject(op, symbol, ErrZeroQuantity, "budget %s at %v", sized.Budget.StringFixed(2), price)
	}
	notional := sized.Notional
	if notional.LessThan(l.minTrade) {
		return Trade{}, reject(op, symbol, ErrBelowMinTrade, "%s < %s", notional.StringFixed(2), l.minTrade.StringFixed(2))
	}

	commission := notional.Mul(l.commission)
	slippage := notional.Mul(l.slippage)
	total := notional.Add(commission).Add(slippage)
	if total.GreaterThan(l.cash) {
		return Trade{}, reject(op, symbol, ErrInsufficientCash, "need %s, have %s", total.StringFixed(2), l.cash.StringFixed(2))
	}

	l.cash = l.cash.Sub(total)

	if open {
		q := pos.Quantity + sized.Quantity
		pos.AvgPrice = (pos.AvgPrice*float64(pos.Quantity) + price*float64(sized.Quantity)) / float64(q)
		pos.Quantity = q
	} else {
		pos = &Position{Symbol: symbol, Lot: id.NewAt(ts), EntryTime: ts, AvgPrice: price, Quantity: sized.Quantity}
		l.positions[symbol] = pos
	}
	pos.StopLoss, pos.TakeProfit = risk.Levels(pos.AvgPrice, l.cfg.StopLossRate, l.cfg.TakeProfitRate)
	pos.MarkPrice, pos.MarkTime = price, ts

	return l.record(Trade{
		Lot:        pos.Lot,
		Time:       ts,
		Symbol:     symbol,
		Side:       Buy,
		Quantity:   sized.Quantity,
		Price:      price,
		Notional:   notional,
		Commission: commission,
		Slippage:   slippage,
		CashDelta:  total.Neg(),
		Reason:     ReasonSignal,
		Signal:     sig,
	}), nil
}

// Sell closes the whole position in symbol on a signal.
func (l *Ledger) Sell(symbol string, price float64, ts time.Time, sig *strategies.Signal) (Trade, error) {
	return l.close("sell", symbol, price, ts, ReasonSignal, sig)
}

// Close exits the position in symbol for a non-signal reason.
func (l *Ledger) Close(symbol string, price float64, ts time.Time, reason Reason) (Trade, error) {
	return l.close("close", symbol, price, ts, reason, nil)
}

func (l *Ledger) close(op, symbol string, price float64, ts time.Time, reason Reason, sig *strategies.Signal) (Trade, error) {
	if !validPrice(price) {
		return Trade{}, reject(op, symbol, ErrInvalidPrice, "%v", price)
	}
	pos, ok := l.positions[symbol]
	if !ok {
		return Trade{}, reject(op, symbol, ErrNoPosition, "")
	}

	notional := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(pos.Quantity))
	commission := notional.Mul(l.commission)
	slippage := notional.Mul(l.slippage)
	proceeds := notional.Sub(commission).Sub(slippage)

	l.cash = l.cash.Add(proceeds)
	delete(l.positions, symbol)

	return l.record(Trade{
		Lot:        pos.Lot,
		Time:       ts,
		Symbol:     symbol,
		Side:       Sell,
		Quantity:   pos.Quantity,
		Price:      price,
		Notional:   notional,
		Commission: commission,
		Slippage:   slippage,
		CashDelta:  proceeds,
		Reason:     reason,
		Signal:     sig,
	}), nil
}

// CheckStopTake force-sells symbol at price when price is at or through
// the stop-loss or the take-profit level. The stop is checked first.
func (l *Ledger) CheckStopTake(symbol string, price float64, ts time.Time) (Trade, bool) {
	pos, ok := l.positions[symbol]
	if !ok || !validPrice(price) {
		return Trade{}, false
	}

	var reason Reason
	switch {
	case pos.StopLoss > 0 && price <= pos.StopLoss:
		reason = ReasonStopLoss
	case pos.TakeProfit > 0 && price >= pos.TakeProfit:
		reason = ReasonTakeProfit
	default:
		return Trade{}, false
	}

	t, err := l.close("close", symbol, price, ts, reason, nil)
	if err != nil {
		return Trade{}, false
	}
	return t, true
}

// Triggered reports whether price would hit the position's stop or take
// level, without trading.
func (l *Ledger) Triggered(symbol string, price float64) bool {
	pos, ok := l.positions[symbol]
	if !ok {
		return false
	}
	return (pos.StopLoss > 0 && price <= pos.StopLoss) || (pos.TakeProfit > 0 && price >= pos.TakeProfit)
}

// MarkToMarket revalues the open position in symbol. Cash is untouched.
func (l *Ledger) MarkToMarket(symbol string, price float64, ts time.Time) {
	pos, ok := l.positions[symbol]
	if !ok || !validPrice(price) {
		return
	}
	pos.MarkPrice, pos.MarkTime = price, ts
}

func (l *Ledger) record(t Trade) Trade {
	t.ID = id.NewAt(t.Time)
	l.trades = append(l.trades, t)
	return t
}

func (l *Ledger) Cash() decimal.Decimal { return l.cash }

func (l *Ledger) Position(symbol string) (Position, bool) {
	pos, ok := l.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns copies of the open positions ordered by symbol.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (l *Ledger) OpenCount() int { return len(l.positions) }

// Trades returns a copy of the trade log in execution order.
func (l *Ledger) Trades() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *Ledger) PositionValue() decimal.Decimal {
	v := decimal.Zero
	for _, p := range l.positions {
		v = v.Add(p.Value())
	}
	return v
}

// Equity is cash plus the marked value of every open position.
func (l *Ledger) Equity() decimal.Decimal {
	return l.cash.Add(l.PositionValue())
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
