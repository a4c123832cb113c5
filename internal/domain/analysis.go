package domain

import (
	"fmt"
	"strconv"
)

// Options tunes one analysis run. The zero value is usable: it means
// ColumnsAtLeast, StrategyMask and DefaultLowFlowWindow.
type Options struct {
	Columns       ColumnPolicy    `json:"columns"`
	Strategy      MissingStrategy `json:"strategy"`
	LowFlowWindow int             `json:"low_flow_window"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Columns:       ColumnsAtLeast,
		Strategy:      StrategyMask,
		LowFlowWindow: DefaultLowFlowWindow,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Columns == "" {
		o.Columns = d.Columns
	}
	if o.Strategy == "" {
		o.Strategy = d.Strategy
	}
	if o.LowFlowWindow <= 0 {
		o.LowFlowWindow = d.LowFlowWindow
	}
	return o
}

// Validate reports the first option that is set to an unknown value. Empty fields
// are valid and take their defaults.
func (o Options) Validate() error {
	if o.Columns != "" {
		if p, ok := ParseColumnPolicy(string(o.Columns)); !ok || p != o.Columns {
			return &OptionsError{Field: "column policy", Value: string(o.Columns)}
		}
	}
	if o.Strategy != "" {
		if st, ok := ParseMissingStrategy(string(o.Strategy)); !ok || st != o.Strategy {
			return &OptionsError{Field: "missing strategy", Value: string(o.Strategy)}
		}
	}
	if o.LowFlowWindow < 0 {
		return &OptionsError{Field: "low-flow window", Value: strconv.Itoa(o.LowFlowWindow)}
	}
	return nil
}

// Analysis is the full result of one gauge file. It contains no timestamps or
// identifiers, so identical input always yields an identical Analysis.
type Analysis struct {
	Options       Options                `json:"options"`
	Headers       []string               `json:"headers"`
	Series        Series                 `json:"-"`
	Period        PeriodSummary          `json:"period"`
	Stats         DescriptiveStats       `json:"stats"`
	Indicators    HydrologicalIndicators `json:"indicators"`
	DurationCurve []DurationCurvePoint   `json:"duration_curve"`
	MonthlyCycle  []MonthlyMean          `json:"monthly_cycle"`
	LowFlow       *LowFlow               `json:"low_flow,omitempty"`
}

// AnalyzeBytes decodes Windows-1252 input and analyzes it.
func AnalyzeBytes(raw []byte, opts Options) (Analysis, error) {
	lines, err := DecodeLines(raw)
	if err != nil {
		return Analysis{}, err
	}
	return Analyze(lines, opts)
}

// Analyze parses, normalizes and summarizes decoded input lines.
func Analyze(lines []string, opts Options) (Analysis, error) {
	if err := opts.Validate(); err != nil {
		return Analysis{}, err
	}
	opts = opts.withDefaults()

	parsed := ParseLines(lines, opts.Columns)
	series, err := Normalize(parsed.Rows)
	if err != nil {
		return Analysis{}, fmt.Errorf("normalize: %w", err)
	}

	a := Analysis{
		Options: opts,
		Headers: parsed.Headers,
		Series:  series,
	}

	if a.Period, err = AnalyzePeriod(series); err != nil {
		return Analysis{}, err
	}
	if a.Stats, err = Describe(series); err != nil {
		return Analysis{}, err
	}
	if a.Indicators, err = ComputeIndicators(series); err != nil {
		return Analysis{}, err
	}
	a.DurationCurve = BuildDurationCurve(series)
	if a.MonthlyCycle, err = MonthlyCycle(series, opts.Strategy); err != nil {
		return Analysis{}, err
	}
	if a.LowFlow, err = ComputeLowFlow(series, opts.LowFlowWindow); err != nil {
		return Analysis{}, err
	}
	return a, nil
}
