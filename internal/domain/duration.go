package domain

import "sort"

// DurationCurvePoint is one reading on the flow-duration curve with the
// percentage of readings at or above it.
type DurationCurvePoint struct {
	Value             float64 `json:"value"`
	ExceedancePercent float64 `json:"exceedance_percent"`
}

// BuildDurationCurve sorts the valid readings in descending order and assigns each
// the exceedance probability rank/n*100 (rank is 1-based). Equal values keep their
// series order. A series without valid readings yields an empty curve.
func BuildDurationCurve(s Series) []DurationCurvePoint {
	values := s.validValues()
	sort.SliceStable(values, func(i, j int) bool { return values[i] > values[j] })

	n := float64(len(values))
	curve := make([]DurationCurvePoint, len(values))
	for i, v := range values {
		curve[i] = DurationCurvePoint{
			Value:             v,
			ExceedancePercent: float64(i+1) / n * 100,
		}
	}
	return curve
}
