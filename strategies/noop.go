package strategies

import "github.com/rustyeddy/backtester/market"

// Noop never signals.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Signal(string, market.Window) (Signal, bool) { return Signal{}, false }
