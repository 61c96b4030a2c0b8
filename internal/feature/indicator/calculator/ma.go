// Package calculator implements the technical indicator math over closing prices ordered oldest to newest.
// Every function reports ok=false instead of failing when the series is too short.
package calculator

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMASeries returns the exponential moving average for every index from period-1 onwards.
// The first value is seeded with the SMA of the first period values; result[i] aligns with values[i+period-1].
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	k := 2.0 / float64(period+1)
	seed, _ := SMA(values[:period], period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)
	prev := seed
	for _, v := range values[period:] {
		prev = v*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}

// EMA returns the latest exponential moving average value.
func EMA(values []float64, period int) (float64, bool) {
	s := EMASeries(values, period)
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}
