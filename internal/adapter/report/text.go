// Package report renders station reports as plain-text results files.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
)

const rule = "===================================="

// TextWriter writes one results_<station>.txt file per report.
// It implements pipeline.Loader.
type TextWriter struct {
	dir    string
	logger *slog.Logger
}

// NewTextWriter creates a writer targeting dir. The directory is created on first use.
func NewTextWriter(dir string, logger *slog.Logger) *TextWriter {
	return &TextWriter{dir: dir, logger: logger}
}

func (w *TextWriter) Name() string { return "report" }

// Load renders every report to its results file, overwriting older runs.
func (w *TextWriter) Load(ctx context.Context, reports []domain.StationReport) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for i := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(w.dir, Filename(reports[i].Station))
		if err := writeFile(path, &reports[i]); err != nil {
			return err
		}
		w.logger.Debug("results file written", "station", reports[i].Station, "path", path)
	}
	return nil
}

// Filename returns the results file name for a station.
func Filename(station string) string {
	return "results_" + station + ".txt"
}

func writeFile(path string, r *domain.StationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Render(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Render writes the human-readable summary of a report. Values are rounded half
// away from zero to two decimals; the coefficient of variation to three.
func Render(w io.Writer, r *domain.StationReport) error {
	bw := bufio.NewWriter(w)
	p, st, ind := r.Period, r.Stats, r.Indicators

	fmt.Fprintf(bw, "Station results: %s\n", r.Station)
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Series length: %d\n", p.Length)
	fmt.Fprintf(bw, "Data period: %s to %s\n", date(p.StartDate), date(p.EndDate))
	fmt.Fprintf(bw, "Observed values: %d\n", p.ObservedCount)
	fmt.Fprintf(bw, "Missing values: %d\n", p.MissingCount)
	fmt.Fprintf(bw, "Mean: %s\n", round(st.Mean, 2))
	fmt.Fprintf(bw, "Maximum: %s (%s)\n", round(st.Max, 2), date(st.DateOfMax))
	fmt.Fprintf(bw, "Minimum: %s (%s)\n", round(st.Min, 2), date(st.DateOfMin))
	fmt.Fprintf(bw, "Standard deviation: %s\n", round(st.StdDev, 2))

	fmt.Fprintln(bw, "\nHYDROLOGICAL INDICATORS")
	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "Q10: %s\n", round(ind.Q10, 2))
	fmt.Fprintf(bw, "Q50 (median): %s\n", round(ind.Q50, 2))
	fmt.Fprintf(bw, "Q90: %s\n", round(ind.Q90, 2))
	fmt.Fprintf(bw, "Q95 (environmental flow): %s\n", round(ind.Q95, 2))
	fmt.Fprintf(bw, "Coefficient of variation: %s\n", round(ind.CoefficientOfVariation, 3))
	if r.LowFlow != nil {
		fmt.Fprintf(bw, "%d-day low flow: %s\n", r.LowFlow.Window, round(r.LowFlow.MinMean, 2))
	} else {
		fmt.Fprintf(bw, "%d-day low flow: n/a\n", r.Options.LowFlowWindow)
	}

	fmt.Fprintln(bw, "\nANNUAL MAXIMA")
	fmt.Fprintln(bw, rule)
	for _, y := range ind.AnnualMaxima.Years() {
		fmt.Fprintf(bw, "%d: %s\n", y, round(ind.AnnualMaxima[y], 2))
	}

	fmt.Fprintf(bw, "\nMONTHLY CYCLE (%s)\n", r.Options.Strategy)
	fmt.Fprintln(bw, rule)
	for _, m := range r.MonthlyCycle {
		fmt.Fprintf(bw, "%s: %s\n", m.Month.String()[:3], round(m.Mean, 2))
	}

	return bw.Flush()
}

// round prints NaN and infinities as n/a; decimal cannot represent them.
func round(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func date(t time.Time) string {
	return t.Format("2006-01-02")
}
