// Package market holds daily OHLCV bars, per-symbol price series and the
// providers that supply them to the backtest driver.
package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultTolerance is the relative slack allowed when checking the OHLC
// ordering of a bar. Noisy vendor feeds round high/low independently of
// open/close, so a strict comparison rejects otherwise good data.
const DefaultTolerance = 1e-6

var (
	ErrInvalidBar    = errors.New("market: invalid bar")
	ErrNoBars        = errors.New("market: no bars")
	ErrTooManyBad    = errors.New("market: too many invalid bars")
	ErrUnknownSymbol = errors.New("market: unknown symbol")
)

// Bar is one trading day of OHLCV data for a symbol.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks a bar before it is handed to the driver. Close must be
// finite and positive; high/low must bracket open and close within tol
// (relative to the bracketed price).
func (b Bar) Validate(tol float64) error {
	if b.Symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrInvalidBar)
	}
	if b.Date.IsZero() {
		return fmt.Errorf("%w: %s missing date", ErrInvalidBar, b.Symbol)
	}
	if !finite(b.Close) || b.Close <= 0 {
		return fmt.Errorf("%w: %s %s close %v", ErrInvalidBar, b.Symbol, FormatDate(b.Date), b.Close)
	}
	if !finite(b.Open) || !finite(b.High) || !finite(b.Low) || !finite(b.Volume) {
		return fmt.Errorf("%w: %s %s non-finite field", ErrInvalidBar, b.Symbol, FormatDate(b.Date))
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: %s %s negative volume", ErrInvalidBar, b.Symbol, FormatDate(b.Date))
	}

	hi := math.Max(b.Open, b.Close)
	lo := math.Min(b.Open, b.Close)
	if b.High < hi*(1-tol) {
		return fmt.Errorf("%w: %s %s high %v below max(open,close) %v",
			ErrInvalidBar, b.Symbol, FormatDate(b.Date), b.High, hi)
	}
	if b.Low > lo*(1+tol) {
		return fmt.Errorf("%w: %s %s low %v above min(open,close) %v",
			ErrInvalidBar, b.Symbol, FormatDate(b.Date), b.Low, lo)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWeekday reports whether t falls Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// FormatDate renders a date the way config files and reports spell it.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateLayout is the canonical YYYY-MM-DD layout.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the UTC date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return DateOf(t), nil
}
