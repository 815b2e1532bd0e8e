package strategies

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Action is what a signal asks the ledger to do.
type Action int

const (
	Hold Action = iota
	Buy
	StrongBuy
	Sell
	StrongSell
)

var actionNames = [...]string{
	Hold:       "hold",
	Buy:        "buy",
	StrongBuy:  "strong_buy",
	Sell:       "sell",
	StrongSell: "strong_sell",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool { return a >= Hold && a <= StrongSell }

func (a Action) IsBuy() bool  { return a == Buy || a == StrongBuy }
func (a Action) IsSell() bool { return a == Sell || a == StrongSell }

// ParseAction accepts the String form, case-insensitive, with "-" or "_".
func ParseAction(s string) (Action, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range actionNames {
		if n == key {
			return Action(i), nil
		}
	}
	return Hold, fmt.Errorf("unknown action %q", s)
}

func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("unknown action %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

var ErrInvalidSignal = errors.New("strategies: invalid signal")

// Signal is one trading recommendation for one symbol on one day.
// It is a value; nothing downstream mutates it after it is emitted.
type Signal struct {
	Symbol     string    `json:"symbol"`
	Time       time.Time `json:"time"`
	Action     Action    `json:"action"`
	Confidence float64   `json:"confidence"`
	Price      float64   `json:"price"`
	Strategy   string    `json:"strategy"`
}

func (s Signal) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrInvalidSignal)
	}
	if !s.Action.Valid() {
		return fmt.Errorf("%w: %s action %d", ErrInvalidSignal, s.Symbol, int(s.Action))
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("%w: %s confidence %v outside [0,1]", ErrInvalidSignal, s.Symbol, s.Confidence)
	}
	if math.IsNaN(s.Price) || math.IsInf(s.Price, 0) || s.Price <= 0 {
		return fmt.Errorf("%w: %s price %v", ErrInvalidSignal, s.Symbol, s.Price)
	}
	return nil
}
