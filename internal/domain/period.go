package domain

import "time"

// PeriodSummary describes the extent and completeness of a series.
type PeriodSummary struct {
	Length        int       `json:"length"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	ObservedCount int       `json:"observed_count"`
	MissingCount  int       `json:"missing_count"`
}

// AnalyzePeriod scans the whole series for its earliest and latest dates and counts
// observed and missing readings. The series does not need to be sorted.
func AnalyzePeriod(s Series) (PeriodSummary, error) {
	if s.Len() == 0 {
		return PeriodSummary{}, &EmptySeriesError{Analysis: "period"}
	}

	p := PeriodSummary{
		Length:    s.Len(),
		StartDate: s.obs[0].Date,
		EndDate:   s.obs[0].Date,
	}
	for _, o := range s.obs {
		if o.Date.Before(p.StartDate) {
			p.StartDate = o.Date
		}
		if o.Date.After(p.EndDate) {
			p.EndDate = o.Date
		}
		if o.Reading.IsMissing() {
			p.MissingCount++
		} else {
			p.ObservedCount++
		}
	}
	return p, nil
}
