package market

import (
	"math/rand"
	"time"
)

// RandomWalk generates weekday bars for each symbol between start and end
// (inclusive): a slight upward drift plus 2% gaussian noise, with high/low
// wrapped around open/close. It is meant for demos and smoke tests when no
// vendor data is at hand; the same seed always yields the same bars.
func RandomWalk(symbols []string, start, end time.Time, seed int64) []Bar {
	rng := rand.New(rand.NewSource(seed))
	start, end = DateOf(start), DateOf(end)

	var out []Bar
	for _, sym := range symbols {
		price := 50_000 + rng.Float64()*150_000
		i := 0
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !IsWeekday(d) {
				continue
			}
			drift := 0.0001 * float64(i)
			if drift > 0.002 {
				drift = 0.002
			}
			price *= 1 + drift + rng.NormFloat64()*0.02
			i++

			open := price * (0.98 + rng.Float64()*0.04)
			cl := price
			hi := max(open, cl) * (1 + rng.Float64()*0.03)
			lo := min(open, cl) * (1 - rng.Float64()*0.03)

			out = append(out, Bar{
				Symbol: sym,
				Date:   d,
				Open:   open,
				High:   hi,
				Low:    lo,
				Close:  cl,
				Volume: float64(1_000_000 + rng.Intn(9_000_000)),
			})
		}
	}
	return out
}
