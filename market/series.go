package market

import (
	"fmt"
	"sort"
	"time"
)

// MaxInvalidRatio is the fraction of rejected bars above which a whole series
// is considered unusable.
const MaxInvalidRatio = 0.10

// Series is the validated, date-ordered bar history of one symbol.
// It is read-only once built and may be shared between concurrent runs.
type Series struct {
	Symbol string

	bars   []Bar
	byDate map[time.Time]int

	// Rejected holds the validation error of every dropped bar.
	Rejected []error
}

// NewSeries validates bars, drops the bad ones and orders the rest by date.
// Duplicate dates keep the last bar seen. A series whose rejection ratio
// exceeds MaxInvalidRatio is refused with ErrTooManyBad.
func NewSeries(symbol string, bars []Bar, tol float64) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoBars, symbol)
	}

	s := &Series{
		Symbol: symbol,
		byDate: make(map[time.Time]int, len(bars)),
	}

	kept := make(map[time.Time]Bar, len(bars))
	for _, b := range bars {
		if b.Symbol == "" {
			b.Symbol = symbol
		}
		if b.Symbol != symbol {
			s.Rejected = append(s.Rejected, fmt.Errorf("%w: symbol %s in %s series", ErrInvalidBar, b.Symbol, symbol))
			continue
		}
		b.Date = DateOf(b.Date)
		if err := b.Validate(tol); err != nil {
			s.Rejected = append(s.Rejected, err)
			continue
		}
		kept[b.Date] = b
	}

	if ratio := float64(len(s.Rejected)) / float64(len(bars)); ratio > MaxInvalidRatio {
		return nil, fmt.Errorf("%w: %s rejected %d of %d bars", ErrTooManyBad, symbol, len(s.Rejected), len(bars))
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoBars, symbol)
	}

	s.bars = make([]Bar, 0, len(kept))
	for _, b := range kept {
		s.bars = append(s.bars, b)
	}
	sort.Slice(s.bars, func(i, j int) bool { return s.bars[i].Date.Before(s.bars[j].Date) })
	for i, b := range s.bars {
		s.byDate[b.Date] = i
	}
	return s, nil
}

// Len is the number of usable bars.
func (s *Series) Len() int { return len(s.bars) }

// Bar returns the bar dated d, if any.
func (s *Series) Bar(d time.Time) (Bar, bool) {
	i, ok := s.byDate[DateOf(d)]
	if !ok {
		return Bar{}, false
	}
	return s.bars[i], true
}

// WindowAt returns the cumulative history up to and including date d.
// ok is false when there is no bar dated d.
func (s *Series) WindowAt(d time.Time) (Window, bool) {
	i, ok := s.byDate[DateOf(d)]
	if !ok {
		return Window{}, false
	}
	return newWindow(s.bars[: i+1 : i+1]), true
}

// First and Last return the earliest and latest usable bar.
func (s *Series) First() Bar { return s.bars[0] }
func (s *Series) Last() Bar  { return s.bars[len(s.bars)-1] }
