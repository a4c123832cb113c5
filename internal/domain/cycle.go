package domain

import (
	"errors"
	"strings"
	"time"
)

// MissingStrategy selects how missing readings are treated when building the
// annual cycle and the gap-filled series.
type MissingStrategy string

const (
	// StrategyMask leaves missing readings out.
	StrategyMask MissingStrategy = "mask"
	// StrategyMean replaces missing readings with the mean of all valid readings.
	StrategyMean MissingStrategy = "mean"
	// StrategyMonthlyMean replaces missing readings with the mean of the valid
	// readings that share their calendar month.
	StrategyMonthlyMean MissingStrategy = "monthly"
)

// ParseMissingStrategy maps a configuration string to a MissingStrategy.
func ParseMissingStrategy(s string) (MissingStrategy, bool) {
	switch MissingStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyMask:
		return StrategyMask, true
	case StrategyMean:
		return StrategyMean, true
	case StrategyMonthlyMean:
		return StrategyMonthlyMean, true
	default:
		return "", false
	}
}

// FilledObservation is an observation after gap filling. Filled marks readings
// that were missing in the source and now carry a substituted value.
type FilledObservation struct {
	Date    time.Time
	Reading Reading
	Filled  bool
}

// MonthlyMean is the average reading for one calendar month across all years.
type MonthlyMean struct {
	Month time.Month `json:"month"`
	Mean  float64    `json:"mean"`
	Count int        `json:"count"`
}

// FillMissing returns the series with missing readings substituted per strategy.
// StrategyMask returns the readings unchanged. Under StrategyMonthlyMean a month
// with no valid readings stays missing. An unknown strategy is an *OptionsError.
func FillMissing(s Series, strategy MissingStrategy) ([]FilledObservation, error) {
	switch strategy {
	case StrategyMask, StrategyMean, StrategyMonthlyMean:
	default:
		return nil, &OptionsError{Field: "missing strategy", Value: string(strategy)}
	}
	if len(s.validValues()) == 0 {
		return nil, &EmptySeriesError{Analysis: "gap filling"}
	}

	out := make([]FilledObservation, len(s.obs))
	for i, o := range s.obs {
		out[i] = FilledObservation{Date: o.Date, Reading: o.Reading}
	}

	switch strategy {
	case StrategyMean:
		mean := meanOf(s.validValues())
		for i := range out {
			if out[i].Reading.IsMissing() {
				out[i].Reading, out[i].Filled = Valid(mean), true
			}
		}
	case StrategyMonthlyMean:
		means := monthlyMeans(s.obs)
		for i := range out {
			if !out[i].Reading.IsMissing() {
				continue
			}
			if m, ok := means[out[i].Date.Month()]; ok {
				out[i].Reading, out[i].Filled = Valid(m.Mean), true
			}
		}
	}
	return out, nil
}

// MonthlyCycle averages the gap-filled series by calendar month. Months that end
// up with no values are omitted; the result is ordered January to December.
func MonthlyCycle(s Series, strategy MissingStrategy) ([]MonthlyMean, error) {
	filled, err := FillMissing(s, strategy)
	if errors.Is(err, ErrEmptySeries) {
		return nil, &EmptySeriesError{Analysis: "monthly cycle"}
	}
	if err != nil {
		return nil, err
	}

	obs := make([]Observation, len(filled))
	for i, f := range filled {
		obs[i] = Observation{Date: f.Date, Reading: f.Reading}
	}
	means := monthlyMeans(obs)

	cycle := make([]MonthlyMean, 0, len(means))
	for m := time.January; m <= time.December; m++ {
		if mm, ok := means[m]; ok {
			cycle = append(cycle, mm)
		}
	}
	return cycle, nil
}

func monthlyMeans(obs []Observation) map[time.Month]MonthlyMean {
	byMonth := make(map[time.Month][]float64)
	for _, o := range obs {
		if v, ok := o.Reading.Value(); ok {
			byMonth[o.Date.Month()] = append(byMonth[o.Date.Month()], v)
		}
	}

	out := make(map[time.Month]MonthlyMean, len(byMonth))
	for m, vs := range byMonth {
		out[m] = MonthlyMean{Month: m, Mean: meanOf(vs), Count: len(vs)}
	}
	return out
}
