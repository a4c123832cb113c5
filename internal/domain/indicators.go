package domain

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// HydrologicalIndicators are flow-regime indices over the complete-cases subset.
//
// Q95 holds the 5th percentile of the readings, the low-flow tail exceeded 95% of
// the time. The field keeps the name used by the gauge reports it replaces.
//
// CoefficientOfVariation is the sample standard deviation divided by the mean. It
// is 0 when the mean is 0, where the ratio is undefined, so a 0 does not by itself
// mean the readings are constant. It is also 0 for a single reading.
type HydrologicalIndicators struct {
	Q10                    float64      `json:"q10"`
	Q50                    float64      `json:"q50"`
	Q90                    float64      `json:"q90"`
	Q95                    float64      `json:"q95"`
	CoefficientOfVariation float64      `json:"coefficient_of_variation"`
	AnnualMaxima           AnnualMaxima `json:"annual_maxima"`
}

// AnnualMaxima maps a calendar year to the largest valid reading in that year.
// Years without valid readings are absent.
type AnnualMaxima map[int]float64

// Years returns the years present, ascending.
func (m AnnualMaxima) Years() []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// ComputeIndicators drops missing readings and derives percentiles, the
// coefficient of variation (sample standard deviation over mean) and annual maxima.
func ComputeIndicators(s Series) (HydrologicalIndicators, error) {
	valid := s.ValidObservations()
	if len(valid) == 0 {
		return HydrologicalIndicators{}, &EmptySeriesError{Analysis: "hydrological indicators"}
	}

	values := s.validValues()
	sorted := stats.Sample{Xs: values}.Copy().Sort()

	ind := HydrologicalIndicators{
		Q10:          Quantile(sorted.Xs, 0.10),
		Q50:          Quantile(sorted.Xs, 0.50),
		Q90:          Quantile(sorted.Xs, 0.90),
		Q95:          Quantile(sorted.Xs, 0.05),
		AnnualMaxima: make(AnnualMaxima),
	}
	// The ratio is scale free, so it is taken over rescaled readings to keep huge
	// values from overflowing the sum of squares.
	sample := stats.Sample{Xs: scaled(values, magnitudeScale(values))}
	if mean := sample.Mean(); mean != 0 {
		ind.CoefficientOfVariation = sample.StdDev() / mean
	}

	for _, o := range valid {
		v, _ := o.Reading.Value()
		y := o.Date.Year()
		if cur, ok := ind.AnnualMaxima[y]; !ok || v > cur {
			ind.AnnualMaxima[y] = v
		}
	}
	return ind, nil
}

// Quantile returns the q-quantile (0 <= q <= 1) of ascending-sorted xs, linearly
// interpolating between the two closest order statistics. It returns NaN for an
// empty slice.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	h := q * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	frac := h - float64(lo)
	a, b := sorted[lo], sorted[lo+1]
	if d := b - a; !math.IsInf(d, 0) {
		return a + frac*d
	}
	return a*(1-frac) + b*frac
}
