package ledger

import (
	"errors"
	"fmt"
)

// Rejection kinds. Match them with errors.Is; the concrete error is *Error.
var (
	ErrAlreadyOpen      = errors.New("position already open")
	ErrMaxPositions     = errors.New("max open positions reached")
	ErrZeroQuantity     = errors.New("quantity rounds to zero")
	ErrBelowMinTrade    = errors.New("below minimum trade amount")
	ErrInsufficientCash = errors.New("insufficient cash")
	ErrNoPosition       = errors.New("no open position")
	ErrInvalidPrice     = errors.New("invalid price")
)

// Error is a rejected ledger operation. The ledger state is unchanged when
// one is returned.
type Error struct {
	Op     string // buy, sell, close
	Symbol string
	Kind   error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("ledger: %s %s: %v", e.Op, e.Symbol, e.Kind)
	}
	return fmt.Sprintf("ledger: %s %s: %v (%s)", e.Op, e.Symbol, e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Kind }

func reject(op, symbol string, kind error, format string, args ...any) error {
	e := &Error{Op: op, Symbol: symbol, Kind: kind}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}
