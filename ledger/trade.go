package ledger

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "buy":
		*s = Buy
	case "sell":
		*s = Sell
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

// Reason records why a trade happened.
type Reason string

const (
	ReasonSignal     Reason = "signal"
	ReasonStopLoss   Reason = "stop_loss"
	ReasonTakeProfit Reason = "take_profit"
	ReasonEndOfRun   Reason = "end_of_run"
)

// Trade is one fill. Trades are appended to the log and never changed.
//
// Lot ties the buys of one position to the sell that closes it.
// CashDelta is negative for buys (notional plus frictions) and positive for
// sells (notional less frictions).
type Trade struct {
	ID         string
	Lot        string
	Time       time.Time
	Symbol     string
	Side       Side
	Quantity   int64
	Price      float64
	Notional   decimal.Decimal
	Commission decimal.Decimal
	Slippage   decimal.Decimal
	CashDelta  decimal.Decimal
	Reason     Reason
	Signal     *strategies.Signal
}

// Strategy is the name of the source that triggered the trade, if any.
func (t Trade) Strategy() string {
	if t.Signal == nil {
		return ""
	}
	return t.Signal.Strategy
}

// Position is the single open lot of one symbol.
type Position struct {
	Symbol     string
	Lot        string
	Quantity   int64
	AvgPrice   float64
	EntryTime  time.Time
	StopLoss   float64 // 0 when disabled
	TakeProfit float64 // 0 when disabled
	MarkPrice  float64
	MarkTime   time.Time
}

// Value is the position marked at MarkPrice.
func (p Position) Value() decimal.Decimal {
	return decimal.NewFromFloat(p.MarkPrice).Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedReturn is the mark relative to the average entry.
func (p Position) UnrealizedReturn() float64 {
	if p.AvgPrice == 0 {
		return 0
	}
	return (p.MarkPrice - p.AvgPrice) / p.AvgPrice
}
