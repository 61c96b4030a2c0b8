package calculator

import "math"

// BollingerResult holds the three bands.
type BollingerResult struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger computes period-SMA ± k population standard deviations over the last period closes.
func Bollinger(closes []float64, period int, k float64) (BollingerResult, bool) {
	mean, ok := SMA(closes, period)
	if !ok {
		return BollingerResult{}, false
	}
	var sq float64
	for _, v := range closes[len(closes)-period:] {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(period))
	return BollingerResult{
		Upper:  mean + k*std,
		Middle: mean,
		Lower:  mean - k*std,
	}, true
}
