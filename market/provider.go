package market

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Provider supplies per-symbol daily bars.
//
// Bars returns the bars dated within [from, to], inclusive, ordered by date.
// A zero from means "from the beginning of the available history".
type Provider interface {
	Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
	Symbols() []string
}

// MemoryProvider is an in-memory Provider, safe for concurrent readers.
type MemoryProvider struct {
	mu   sync.RWMutex
	bars map[string][]Bar
}

func NewMemoryProvider(bars ...Bar) *MemoryProvider {
	p := &MemoryProvider{bars: make(map[string][]Bar)}
	p.Add(bars...)
	return p
}

// Add appends bars, keeping each symbol's slice date-ordered.
func (p *MemoryProvider) Add(bars ...Bar) {
	p.mu.Lock()
	defer p.mu.Unlock()

	touched := map[string]struct{}{}
	for _, b := range bars {
		b.Date = DateOf(b.Date)
		p.bars[b.Symbol] = append(p.bars[b.Symbol], b)
		touched[b.Symbol] = struct{}{}
	}
	for sym := range touched {
		s := p.bars[sym]
		sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	}
}

func (p *MemoryProvider) Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	all, ok := p.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	from, to = DateOf(from), DateOf(to)
	out := make([]Bar, 0, len(all))
	for _, b := range all {
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (p *MemoryProvider) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.bars))
	for sym := range p.bars {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
