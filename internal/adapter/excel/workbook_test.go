package excel

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
)

const sample = "# Station\n" +
	"2020-01-01;00:00;1;10.0;A\n" +
	"2020-01-02;00:00;1;-999.000;A\n" +
	"2020-01-03;00:00;1;20.0;A\n"

func newReport(t *testing.T, station string) domain.StationReport {
	t.Helper()
	in := domain.StationInput{Station: station, Data: []byte(sample)}
	a, err := domain.AnalyzeBytes(in.Data, domain.DefaultOptions())
	require.NoError(t, err)
	return domain.NewStationReport(in, a)
}

func TestWrite(t *testing.T) {
	reports := []domain.StationReport{newReport(t, "RIO"), newReport(t, "LAGO")}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, reports))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.Equal(t, []string{SummarySheet, "RIO", "LAGO"}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "Station", summary[0][0])
	assert.Equal(t, "RIO", summary[1][0])
	assert.Equal(t, "3", summary[1][1])
	assert.Equal(t, "2020-01-01", summary[1][2])
	mean, err := strconv.ParseFloat(summary[1][6], 64)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, mean, 1e-9)

	series, err := f.GetRows("RIO")
	require.NoError(t, err)
	require.Len(t, series, 4)
	assert.Equal(t, []string{"Date", "Value"}, series[0])
	assert.Equal(t, []string{"2020-01-01", "10"}, series[1])
	assert.Equal(t, []string{"2020-01-02"}, series[2], "missing reading stays blank")
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{"summary": true}

	assert.Equal(t, "RIO", SheetName("RIO", used))
	assert.Equal(t, "RIO~2", SheetName("rio", used))
	assert.Equal(t, "Summary~2", SheetName("Summary", used))
	assert.Equal(t, "A_B_C", SheetName("A/B?C", used))
	assert.Equal(t, "station", SheetName("''", used))

	long := strings.Repeat("X", 40)
	first := SheetName(long, used)
	second := SheetName(long, used)
	assert.Len(t, first, excelize.MaxSheetNameLength)
	assert.Len(t, second, excelize.MaxSheetNameLength)
	assert.True(t, strings.HasSuffix(second, "~2"))
}

func TestFileWriter_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "gauges.xlsx")
	w := NewFileWriter(path, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, w.Load(context.Background(), []domain.StationReport{newReport(t, "RIO")}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	assert.Equal(t, []string{SummarySheet, "RIO"}, f.GetSheetList())
	assert.Equal(t, "workbook", w.Name())
}
