package domain

import "time"

// DescriptiveStats summarizes the valid readings of a series.
// StdDev is the population standard deviation.
type DescriptiveStats struct {
	Mean      float64   `json:"mean"`
	StdDev    float64   `json:"std_dev"`
	Max       float64   `json:"max"`
	Min       float64   `json:"min"`
	DateOfMax time.Time `json:"date_of_max"`
	DateOfMin time.Time `json:"date_of_min"`
}

// Describe computes mean, population standard deviation and extremes over the
// valid readings only. When several observations share the extreme value, the
// first one in series order supplies the date.
func Describe(s Series) (DescriptiveStats, error) {
	valid := s.ValidObservations()
	if len(valid) == 0 {
		return DescriptiveStats{}, &EmptySeriesError{Analysis: "descriptive statistics"}
	}

	first, _ := valid[0].Reading.Value()
	st := DescriptiveStats{
		Max:       first,
		Min:       first,
		DateOfMax: valid[0].Date,
		DateOfMin: valid[0].Date,
	}

	values := make([]float64, len(valid))
	for i, o := range valid {
		v, _ := o.Reading.Value()
		values[i] = v
		if v > st.Max {
			st.Max, st.DateOfMax = v, o.Date
		}
		if v < st.Min {
			st.Min, st.DateOfMin = v, o.Date
		}
	}
	st.Mean = meanOf(values)
	st.StdDev = populationStdDev(values, st.Mean)

	return st, nil
}
