// Package excel exports station reports as an .xlsx workbook.
package excel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
)

// SummarySheet is the name of the sheet holding one row per station.
const SummarySheet = "Summary"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var summaryHeader = []any{
	"Station", "Length", "Start", "End", "Observed", "Missing",
	"Mean", "Std dev", "Max", "Date of max", "Min", "Date of min",
	"Q10", "Q50", "Q90", "Q95", "CV", "Low flow window", "Low flow",
}

// Write renders reports into a workbook: a Summary sheet followed by one
// date/value sheet per station, in report order.
func Write(w io.Writer, reports []domain.StationReport) error {
	f, err := build(reports)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func build(reports []domain.StationReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeRows(f, SummarySheet, summaryRows(reports), bold); err != nil {
		f.Close()
		return nil, err
	}

	used := map[string]bool{strings.ToLower(SummarySheet): true}
	for i := range reports {
		name := SheetName(reports[i].Station, used)
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeRows(f, name, seriesRows(&reports[i]), bold); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func summaryRows(reports []domain.StationReport) [][]any {
	rows := make([][]any, 0, len(reports)+1)
	rows = append(rows, summaryHeader)
	for i := range reports {
		r := &reports[i]
		p, st, ind := r.Period, r.Stats, r.Indicators
		row := []any{
			r.Station, p.Length, date(p.StartDate), date(p.EndDate), p.ObservedCount, p.MissingCount,
			st.Mean, st.StdDev, st.Max, date(st.DateOfMax), st.Min, date(st.DateOfMin),
			ind.Q10, ind.Q50, ind.Q90, ind.Q95, ind.CoefficientOfVariation,
		}
		if r.LowFlow != nil {
			row = append(row, r.LowFlow.Window, r.LowFlow.MinMean)
		} else {
			row = append(row, r.Options.LowFlowWindow, "")
		}
		rows = append(rows, row)
	}
	return rows
}

// seriesRows lists the station's observations in input order. Missing readings
// are left blank.
func seriesRows(r *domain.StationReport) [][]any {
	rows := make([][]any, 0, r.Series.Len()+1)
	rows = append(rows, []any{"Date", "Value"})
	for _, o := range r.Series.Observations() {
		if v, ok := o.Reading.Value(); ok {
			rows = append(rows, []any{date(o.Date), v})
		} else {
			rows = append(rows, []any{date(o.Date)})
		}
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// SheetName turns a station identifier into a valid, unique sheet name: characters
// Excel forbids become '_', the name is cut to 31 characters, and a numeric
// suffix resolves case-insensitive clashes. The chosen name is recorded in used.
func SheetName(station string, used map[string]bool) string {
	base := strings.Trim(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, station), "'")
	if base == "" {
		base = "station"
	}
	base = truncate(base, excelize.MaxSheetNameLength)

	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := "~" + strconv.Itoa(n)
		name = truncate(base, excelize.MaxSheetNameLength-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func date(t time.Time) string {
	return t.Format("2006-01-02")
}

// FileWriter saves all reports of a batch into one workbook file.
// It implements pipeline.Loader.
type FileWriter struct {
	path   string
	logger *slog.Logger
}

// NewFileWriter creates a writer that saves to path, replacing any existing file.
func NewFileWriter(path string, logger *slog.Logger) *FileWriter {
	return &FileWriter{path: path, logger: logger}
}

func (w *FileWriter) Name() string { return "workbook" }

func (w *FileWriter) Load(_ context.Context, reports []domain.StationReport) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := build(reports)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	w.logger.Info("workbook written", "path", w.path, "stations", len(reports))
	return nil
}
