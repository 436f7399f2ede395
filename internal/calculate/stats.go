package calculate

import "math"

// Mean returns the arithmetic mean of values, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation of values.
// Fewer than 2 values carry no spread information, so 0 is returned.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// ZScore returns how many standard deviations current sits from the mean of
// the historical values. The second return is false when the sample is too
// small or flat to produce a meaningful score.
func ZScore(values []float64, current float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	sd := StdDev(values)
	if sd == 0 {
		return 0, false
	}
	return (current - Mean(values)) / sd, true
}

// Returns computes simple percentage returns between consecutive prices.
// Pairs whose earlier price is not strictly positive are discarded so the
// ratio is never computed against a zero or negative denominator.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			continue
		}
		out = append(out, (prices[i]-prices[i-1])/prices[i-1])
	}
	return out
}

// volatilityMultiplier converts realized return volatility into a threshold
// floor; two standard deviations of recent returns marks an ordinary move.
const volatilityMultiplier = 2.0

// AdaptiveThreshold widens base in proportion to the realized volatility of
// prices, so routine noise in a volatile market does not register as a price
// signal. With fewer than 2 valid returns the statistic is undefined and the
// configured base threshold is returned unchanged.
func AdaptiveThreshold(prices []float64, base float64) float64 {
	rets := Returns(prices)
	if len(rets) < 2 {
		return base
	}
	sigma := StdDev(rets)
	return math.Max(base, sigma*volatilityMultiplier)
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
