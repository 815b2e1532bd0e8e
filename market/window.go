package market

import "time"

// Window is an immutable view over a symbol's history ending at one day.
// It is what a signal source sees: every bar up to and including "today".
type Window struct {
	bars []Bar
}

func newWindow(bars []Bar) Window {
	return Window{bars: bars}
}

// NewWindow copies bars into a fresh window. Callers outside the driver
// (tests, ad-hoc strategy evaluation) use it to build windows by hand.
func NewWindow(bars []Bar) Window {
	cp := make([]Bar, len(bars))
	copy(cp, bars)
	return Window{bars: cp}
}

func (w Window) Len() int { return len(w.bars) }

// At returns the i-th bar, oldest first.
func (w Window) At(i int) Bar { return w.bars[i] }

// Last is today's bar. It panics on an empty window, like indexing would.
func (w Window) Last() Bar { return w.bars[len(w.bars)-1] }

// Date is the date of the last bar, or the zero time for an empty window.
func (w Window) Date() time.Time {
	if len(w.bars) == 0 {
		return time.Time{}
	}
	return w.Last().Date
}

// Bars returns a copy of the window's bars.
func (w Window) Bars() []Bar {
	cp := make([]Bar, len(w.bars))
	copy(cp, w.bars)
	return cp
}

// Closes returns the closing prices, oldest first.
func (w Window) Closes() []float64 {
	out := make([]float64, len(w.bars))
	for i, b := range w.bars {
		out[i] = b.Close
	}
	return out
}

// Returns is the close-to-close return series of the window; it has one
// element fewer than the window.
func (w Window) Returns() []float64 {
	if len(w.bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(w.bars)-1)
	for i := 1; i < len(w.bars); i++ {
		prev := w.bars[i-1].Close
		out = append(out, (w.bars[i].Close-prev)/prev)
	}
	return out
}

// Tail returns the last n bars as a window (or the whole window if shorter).
func (w Window) Tail(n int) Window {
	if n >= len(w.bars) {
		return w
	}
	if n <= 0 {
		return Window{}
	}
	start := len(w.bars) - n
	return Window{bars: w.bars[start:len(w.bars):len(w.bars)]}
}
