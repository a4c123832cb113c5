package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cycleSeries(t *testing.T) Series {
	return seriesOf(t,
		"2019-01-10", 2.0,
		"2020-01-10", 4.0,
		"2020-01-11", nil,
		"2020-02-10", 10.0,
		"2020-03-10", nil,
	)
}

func TestFillMissing(t *testing.T) {
	tests := []struct {
		name     string
		strategy MissingStrategy
		want     []*float64
	}{
		{"mask", StrategyMask, []*float64{ptr(2), ptr(4), nil, ptr(10), nil}},
		{"mean", StrategyMean, []*float64{ptr(2), ptr(4), ptr(16.0 / 3.0), ptr(10), ptr(16.0 / 3.0)}},
		{"monthly", StrategyMonthlyMean, []*float64{ptr(2), ptr(4), ptr(3), ptr(10), nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filled, err := FillMissing(cycleSeries(t), tt.strategy)
			require.NoError(t, err)
			require.Len(t, filled, len(tt.want))

			for i, want := range tt.want {
				v, ok := filled[i].Reading.Value()
				if want == nil {
					assert.False(t, ok, "index %d", i)
					continue
				}
				assert.True(t, ok, "index %d", i)
				assert.InDelta(t, *want, v, 1e-9, "index %d", i)
			}
		})
	}

	t.Run("filled flag marks substitutions", func(t *testing.T) {
		filled, err := FillMissing(cycleSeries(t), StrategyMean)
		require.NoError(t, err)
		assert.False(t, filled[0].Filled)
		assert.True(t, filled[2].Filled)
	})

	t.Run("no valid readings", func(t *testing.T) {
		_, err := FillMissing(seriesOf(t, "2020-01-01", nil), StrategyMean)
		assert.True(t, errors.Is(err, ErrEmptySeries))
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := FillMissing(cycleSeries(t), MissingStrategy("interpolate"))
		var oe *OptionsError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, "interpolate", oe.Value)
	})

	t.Run("mean of huge readings stays finite", func(t *testing.T) {
		filled, err := FillMissing(seriesOf(t, "2020-01-01", 1e308, "2020-01-02", nil, "2020-01-03", 1e308), StrategyMean)
		require.NoError(t, err)
		v, ok := filled[1].Reading.Value()
		require.True(t, ok)
		assert.Equal(t, 1e308, v)
	})
}

func TestMonthlyCycle(t *testing.T) {
	t.Run("mask", func(t *testing.T) {
		cycle, err := MonthlyCycle(cycleSeries(t), StrategyMask)

		require.NoError(t, err)
		assert.Equal(t, []MonthlyMean{
			{Month: time.January, Mean: 3, Count: 2},
			{Month: time.February, Mean: 10, Count: 1},
		}, cycle)
	})

	t.Run("mean fills every month", func(t *testing.T) {
		cycle, err := MonthlyCycle(cycleSeries(t), StrategyMean)

		require.NoError(t, err)
		require.Len(t, cycle, 3)
		assert.Equal(t, time.March, cycle[2].Month)
		assert.InDelta(t, 16.0/3.0, cycle[2].Mean, 1e-9)
		assert.Equal(t, 3, cycle[0].Count)
	})

	t.Run("ordered january to december", func(t *testing.T) {
		s := seriesOf(t, "2020-12-01", 1.0, "2020-06-01", 2.0, "2021-01-01", 3.0)
		cycle, err := MonthlyCycle(s, StrategyMask)

		require.NoError(t, err)
		months := make([]time.Month, len(cycle))
		for i, m := range cycle {
			months[i] = m.Month
		}
		assert.Equal(t, []time.Month{time.January, time.June, time.December}, months)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := MonthlyCycle(cycleSeries(t), MissingStrategy("bogus"))
		assert.True(t, errors.Is(err, ErrOptions))
		assert.False(t, errors.Is(err, ErrEmptySeries))
	})

	t.Run("empty series", func(t *testing.T) {
		_, err := MonthlyCycle(Series{}, StrategyMask)
		var ee *EmptySeriesError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "monthly cycle", ee.Analysis)
	})
}

func TestParseMissingStrategy(t *testing.T) {
	for _, in := range []string{"mask", "MEAN", " monthly "} {
		_, ok := ParseMissingStrategy(in)
		assert.True(t, ok, in)
	}
	_, ok := ParseMissingStrategy("interpolate")
	assert.False(t, ok)
}

func ptr(v float64) *float64 { return &v }
