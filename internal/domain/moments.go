package domain

import "math"

// Readings above this magnitude are rescaled before summing so that sums and
// squares of finite readings stay finite.
const largeMagnitude = 0x1p500

// magnitudeScale returns 1 for ordinary data, or a power of two that brings every
// value in xs below 2 in absolute terms. Dividing by a power of two is exact
// unless the quotient underflows.
func magnitudeScale(xs []float64) float64 {
	var peak float64
	for _, x := range xs {
		peak = math.Max(peak, math.Abs(x))
	}
	if peak < largeMagnitude {
		return 1
	}
	_, exp := math.Frexp(peak)
	return math.Ldexp(1, exp-1)
}

func scaled(xs []float64, scale float64) []float64 {
	if scale == 1 {
		return xs
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x / scale
	}
	return out
}

func meanOf(xs []float64) float64 {
	scale := magnitudeScale(xs)
	var sum float64
	for _, x := range scaled(xs, scale) {
		sum += x
	}
	return sum / float64(len(xs)) * scale
}

// populationStdDev is the square root of the mean squared deviation from mean.
func populationStdDev(xs []float64, mean float64) float64 {
	scale := magnitudeScale(append([]float64{mean}, xs...))
	m := mean / scale
	var sq float64
	for _, x := range scaled(xs, scale) {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(xs))) * scale
}
