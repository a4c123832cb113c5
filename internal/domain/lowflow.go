package domain

import (
	"math"
	"strconv"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

// DefaultLowFlowWindow is the classic seven-day averaging window for low-flow indices.
const DefaultLowFlowWindow = 7

// LowFlow is the smallest N-reading moving mean of the complete-cases series.
type LowFlow struct {
	Window  int     `json:"window"`
	MinMean float64 `json:"min_mean"`
}

// ComputeLowFlow runs a simple moving average of width window over the valid
// readings in series order and returns its minimum. Missing readings are dropped
// before averaging, so a window may span a gap. It returns nil when there are fewer
// valid readings than the window.
func ComputeLowFlow(s Series, window int) (*LowFlow, error) {
	if window < 1 {
		return nil, &OptionsError{Field: "low-flow window", Value: strconv.Itoa(window)}
	}
	values := s.validValues()
	if len(values) == 0 {
		return nil, &EmptySeriesError{Analysis: "low flow"}
	}
	if len(values) < window {
		return nil, nil
	}

	scale := magnitudeScale(values)
	sma := trend.NewSmaWithPeriod[float64](window)
	means := helper.ChanToSlice(sma.Compute(helper.SliceToChan(scaled(values, scale))))
	if full := len(values) - window + 1; len(means) > full {
		means = means[len(means)-full:]
	}
	if len(means) == 0 {
		return nil, nil
	}

	lf := &LowFlow{Window: window, MinMean: math.Inf(1)}
	for _, m := range means {
		lf.MinMean = math.Min(lf.MinMean, m)
	}
	lf.MinMean *= scale
	return lf, nil
}
