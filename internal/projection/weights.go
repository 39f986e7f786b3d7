package projection

import "math"

// CosineWeights builds the time-decayed sample weights used by the weighted
// risk reductions: a cosine kernel of the given period (typically the
// business days per year) riding on a constant base.
//
//	w(age) = (gain/2)*cos(2*pi*age/period) + gain/2 + base
//
// Index 0 corresponds to the oldest bootstrap sample and index n-1 to the
// newest, which always receives the kernel's peak weight gain+base. With
// base > 0 and gain >= 0 every weight is strictly positive. A nil result is
// never returned; n <= 0 yields an empty slice.
func CosineWeights(n int, gain, base float64, period int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if period <= 0 {
		period = 252
	}
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		age := float64(n - 1 - i)
		w[i] = (gain/2)*math.Cos(2*math.Pi*age/float64(period)) + gain/2 + base
	}
	return w
}

// UniformWeights returns n equal unit weights.
func UniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
