package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	require.NoError(t, err)
	return d
}

func row(line int, date, value string) DataRow {
	return DataRow{Line: line, Fields: []string{date, "00:00", "1", value, "A"}}
}

// seriesOf builds a series from date/value pairs; a nil value is a missing reading.
func seriesOf(t *testing.T, pairs ...any) Series {
	t.Helper()
	require.Zero(t, len(pairs)%2, "pairs must be date/value")
	obs := make([]Observation, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		o := Observation{Date: day(t, pairs[i].(string))}
		if v, ok := pairs[i+1].(float64); ok {
			o.Reading = Valid(v)
		}
		obs = append(obs, o)
	}
	return NewSeries(obs)
}
