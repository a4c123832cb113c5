package domain

import "time"

// MissingSentinel is the literal the gauge network writes for a missing reading.
// Only the normalizer compares against it; everything downstream sees a Reading.
const MissingSentinel = -999.000

// Reading is a gauge value that is either present or explicitly missing.
// The zero value is missing.
type Reading struct {
	value float64
	valid bool
}

// Valid wraps a measured value.
func Valid(v float64) Reading { return Reading{value: v, valid: true} }

// Missing returns a reading with no value.
func Missing() Reading { return Reading{} }

// Value returns the reading and whether it is present.
func (r Reading) Value() (float64, bool) { return r.value, r.valid }

// IsMissing reports whether the reading carries no value.
func (r Reading) IsMissing() bool { return !r.valid }

// Observation pairs a calendar date with a reading.
type Observation struct {
	Date    time.Time
	Reading Reading
}

// Series is an ordered, read-only sequence of observations in input order.
// Dates may repeat and need not be sorted.
type Series struct {
	obs []Observation
}

// NewSeries builds a Series from a copy of obs.
func NewSeries(obs []Observation) Series {
	cp := make([]Observation, len(obs))
	copy(cp, obs)
	return Series{obs: cp}
}

// Len returns the number of observations, missing ones included.
func (s Series) Len() int { return len(s.obs) }

// At returns the i-th observation.
func (s Series) At(i int) Observation { return s.obs[i] }

// Observations returns a copy of all observations.
func (s Series) Observations() []Observation {
	cp := make([]Observation, len(s.obs))
	copy(cp, s.obs)
	return cp
}

// ValidObservations returns the observations with a present reading, in series order.
func (s Series) ValidObservations() []Observation {
	out := make([]Observation, 0, len(s.obs))
	for _, o := range s.obs {
		if !o.Reading.IsMissing() {
			out = append(out, o)
		}
	}
	return out
}

// validValues returns the present readings in series order.
func (s Series) validValues() []float64 {
	out := make([]float64, 0, len(s.obs))
	for _, o := range s.obs {
		if v, ok := o.Reading.Value(); ok {
			out = append(out, v)
		}
	}
	return out
}
