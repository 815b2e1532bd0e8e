package strategies

import (
	"time"

	"github.com/rustyeddy/backtester/market"
)

// Scripted replays a fixed plan of actions keyed by symbol and date. It is
// how tests and what-if runs feed hand-picked signals to the driver.
type Scripted struct {
	Label string
	plan  map[string]map[time.Time]Action
}

func NewScripted(label string) *Scripted {
	if label == "" {
		label = "scripted"
	}
	return &Scripted{Label: label, plan: make(map[string]map[time.Time]Action)}
}

// On schedules action a for symbol on date d.
func (s *Scripted) On(symbol string, d time.Time, a Action) *Scripted {
	days, ok := s.plan[symbol]
	if !ok {
		days = make(map[time.Time]Action)
		s.plan[symbol] = days
	}
	days[market.DateOf(d)] = a
	return s
}

func (s *Scripted) Name() string { return s.Label }

func (s *Scripted) Signal(symbol string, w market.Window) (Signal, bool) {
	if w.Len() == 0 {
		return Signal{}, false
	}
	a, ok := s.plan[symbol][w.Date()]
	if !ok || a == Hold {
		return Signal{}, false
	}
	return emit(s.Label, symbol, w, a, 1)
}
