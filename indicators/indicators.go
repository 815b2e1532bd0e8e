// Package indicators computes technical indicators over closing prices.
//
// Every function takes the full history, oldest first, and evaluates the
// indicator at the last element. They never look past the end of the slice,
// so a strategy handed a cumulative window cannot peek at future bars.
package indicators

import (
	"errors"
	"fmt"
)

// ErrNotEnoughData is returned when the history is shorter than the
// indicator's lookback.
var ErrNotEnoughData = errors.New("indicators: not enough data")

func checkPeriod(period, have, need int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	if have < need {
		return fmt.Errorf("%w: need %d, got %d", ErrNotEnoughData, need, have)
	}
	return nil
}
