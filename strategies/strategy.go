// Package strategies defines trading signals and the sources that emit them.
package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// Source produces at most one signal per symbol per day.
//
// It is handed the cumulative history up to and including the day being
// simulated. From the driver's point of view a Source is stateless: the same
// window must always yield the same answer.
type Source interface {
	Name() string
	Signal(symbol string, w market.Window) (Signal, bool)
}

// Params are the numeric knobs of a registered source, as read from config.
type Params map[string]float64

func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Factory builds a Source from its params.
type Factory func(Params) (Source, error)

var ErrUnknownStrategy = errors.New("strategies: unknown strategy")

var registry = map[string]Factory{}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a factory under name, replacing any previous one.
func Register(name string, f Factory) {
	registry[normalize(name)] = f
}

// New builds the source registered under name.
func New(name string, params Params) (Source, error) {
	f, ok := registry[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownStrategy, name, strings.Join(Names(), ", "))
	}
	return f(params)
}

// Names lists the registered sources in alphabetical order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("noop", func(Params) (Source, error) { return Noop{}, nil })
	Register("ma-cross", func(p Params) (Source, error) {
		return NewMACross(p.Int("fast", 5), p.Int("slow", 20))
	})
	Register("ema-cross", func(p Params) (Source, error) {
		return NewEMACross(p.Int("fast", 10), p.Int("slow", 30))
	})
	Register("rsi", func(p Params) (Source, error) {
		return NewRSI(p.Int("period", 14), p.Float("oversold", 30), p.Float("overbought", 70))
	})
	Register("bollinger", func(p Params) (Source, error) {
		return NewBollinger(p.Int("period", 20), p.Float("k", 2))
	})
}

func emit(name, symbol string, w market.Window, a Action, confidence float64) (Signal, bool) {
	last := w.Last()
	return Signal{
		Symbol:     symbol,
		Time:       last.Date,
		Action:     a,
		Confidence: confidence,
		Price:      last.Close,
		Strategy:   name,
	}, true
}
