package indicators

import "math"

// Band is one Bollinger band reading.
type Band struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger returns the bands k population standard deviations around the
// period SMA.
func Bollinger(closes []float64, period int, k float64) (Band, error) {
	mid, err := SMA(closes, period)
	if err != nil {
		return Band{}, err
	}

	var ss float64
	for _, c := range closes[len(closes)-period:] {
		ss += (c - mid) * (c - mid)
	}
	sd := math.Sqrt(ss / float64(period))

	return Band{Upper: mid + k*sd, Middle: mid, Lower: mid - k*sd}, nil
}
