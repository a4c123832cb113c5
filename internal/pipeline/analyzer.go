package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
)

// StationAnalyzer implements Analyzer with the pure domain functions.
type StationAnalyzer struct{}

// NewAnalyzer creates a StationAnalyzer.
func NewAnalyzer() *StationAnalyzer {
	return &StationAnalyzer{}
}

func (a *StationAnalyzer) Analyze(_ context.Context, in domain.StationInput, opts domain.Options) (domain.StationReport, error) {
	analysis, err := domain.AnalyzeBytes(in.Data, opts)
	if err != nil {
		return domain.StationReport{}, fmt.Errorf("station %s: %w", in.Station, err)
	}
	return domain.NewStationReport(in, analysis), nil
}
