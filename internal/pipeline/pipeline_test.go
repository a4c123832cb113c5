package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
	"github.com/couchcryptid/river-gauge-etl/internal/pipeline"
)

const goodFile = "# Station: TEST\n" +
	"2020-01-01;00:00;1;10.0;A\n" +
	"2020-01-02;00:00;1;-999.000;A\n" +
	"2020-01-03;00:00;1;20.0;A\n"

// --- mocks ---

type sliceSource struct {
	inputs []domain.StationInput
	err    error
}

func (s *sliceSource) Inputs(_ context.Context) ([]domain.StationInput, error) {
	return s.inputs, s.err
}

type mockLoader struct {
	mu      sync.Mutex
	name    string
	loaded  []domain.StationReport
	failFor int // fail this many calls before succeeding
	calls   atomic.Int32
}

func (m *mockLoader) Name() string { return m.name }

func (m *mockLoader) Load(_ context.Context, reports []domain.StationReport) error {
	if int(m.calls.Add(1)) <= m.failFor {
		return errors.New("sink unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = append(m.loaded, reports...)
	return nil
}

type blockingAnalyzer struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	release  chan struct{}
}

func (b *blockingAnalyzer) Analyze(ctx context.Context, in domain.StationInput, _ domain.Options) (domain.StationReport, error) {
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return domain.StationReport{}, ctx.Err()
	}
	return domain.StationReport{Station: in.Station}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func input(station, data string) domain.StationInput {
	return domain.StationInput{Station: station, Source: station + ".txt", Data: []byte(data)}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	src := &sliceSource{inputs: []domain.StationInput{input("A", goodFile), input("B", goodFile)}}
	ldr := &mockLoader{name: "mock"}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(pipeline.NewAnalyzer(), []pipeline.Loader{ldr}, discardLogger(), metrics, 2)
	require.Error(t, p.CheckReadiness(context.Background()))

	res, err := p.Run(context.Background(), src, domain.DefaultOptions())

	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Reports, 2)
	assert.Equal(t, "A", res.Reports[0].Station)
	assert.Equal(t, "B", res.Reports[1].Station)
	assert.Empty(t, res.Failures)
	assert.Len(t, ldr.loaded, 2)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StationsAnalyzed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ReportsDelivered.WithLabelValues("mock")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Process_StationFailureIsolated(t *testing.T) {
	inputs := []domain.StationInput{
		input("GOOD1", goodFile),
		input("BADDATE", "2020-13-01;00:00;1;1.0;A\n"),
		input("EMPTY", "# header only\n"),
		input("GOOD2", goodFile),
	}
	ldr := &mockLoader{name: "mock"}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(pipeline.NewAnalyzer(), []pipeline.Loader{ldr}, discardLogger(), metrics, 3)
	res, err := p.Process(context.Background(), inputs, domain.DefaultOptions())

	require.NoError(t, err)
	require.Len(t, res.Reports, 2)
	assert.Equal(t, "GOOD1", res.Reports[0].Station)
	assert.Equal(t, "GOOD2", res.Reports[1].Station)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, "BADDATE", res.Failures[0].Station)
	assert.True(t, errors.Is(res.Failures[0].Err, domain.ErrDateParse))
	assert.Equal(t, "EMPTY", res.Failures[1].Station)
	assert.True(t, errors.Is(res.Failures[1].Err, domain.ErrEmptySeries))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StationErrors.WithLabelValues("date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StationErrors.WithLabelValues("empty")))
}

func TestPipeline_Analyze_BoundedConcurrency(t *testing.T) {
	ba := &blockingAnalyzer{release: make(chan struct{})}
	inputs := make([]domain.StationInput, 6)
	for i := range inputs {
		inputs[i] = input(fmt.Sprintf("S%d", i), "")
	}

	p := pipeline.New(ba, nil, discardLogger(), observability.NewMetricsForTesting(), 2)

	done := make(chan *pipeline.Result)
	go func() {
		res, err := p.Analyze(context.Background(), inputs, domain.DefaultOptions())
		assert.NoError(t, err)
		done <- res
	}()
	close(ba.release)
	res := <-done

	require.Len(t, res.Reports, 6)
	for i, r := range res.Reports {
		assert.Equal(t, fmt.Sprintf("S%d", i), r.Station)
	}
	assert.LessOrEqual(t, ba.peak.Load(), int32(2))
}

func TestPipeline_Analyze_Cancelled(t *testing.T) {
	ba := &blockingAnalyzer{release: make(chan struct{})}
	p := pipeline.New(ba, nil, discardLogger(), observability.NewMetricsForTesting(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Analyze(ctx, []domain.StationInput{input("A", "")}, domain.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SourceError(t *testing.T) {
	p := pipeline.New(pipeline.NewAnalyzer(), nil, discardLogger(), observability.NewMetricsForTesting(), 1)
	_, err := p.Run(context.Background(), &sliceSource{err: errors.New("disk gone")}, domain.DefaultOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestPipeline_Deliver_RetriesThenSucceeds(t *testing.T) {
	ldr := &mockLoader{name: "flaky", failFor: 1}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(pipeline.NewAnalyzer(), []pipeline.Loader{ldr}, discardLogger(), metrics, 1)

	res, err := p.Process(context.Background(), []domain.StationInput{input("A", goodFile)}, domain.DefaultOptions())

	require.NoError(t, err)
	assert.Len(t, res.Reports, 1)
	assert.Equal(t, int32(2), ldr.calls.Load())
	assert.Len(t, ldr.loaded, 1)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.DeliveryErrors.WithLabelValues("flaky")))
}

func TestPipeline_Deliver_FailureDoesNotStopOtherSinks(t *testing.T) {
	broken := &mockLoader{name: "broken", failFor: 100}
	healthy := &mockLoader{name: "healthy"}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(pipeline.NewAnalyzer(), []pipeline.Loader{broken, healthy}, discardLogger(), metrics, 1)

	res, err := p.Process(context.Background(), []domain.StationInput{input("A", goodFile)}, domain.DefaultOptions())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	require.NotNil(t, res)
	assert.Len(t, healthy.loaded, 1)
	assert.Equal(t, int32(3), broken.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DeliveryErrors.WithLabelValues("broken")))
}

func TestPipeline_DeliverTo_OnlyNamedSinks(t *testing.T) {
	files := &mockLoader{name: "files"}
	bus := &mockLoader{name: "bus"}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(pipeline.NewAnalyzer(), []pipeline.Loader{files, bus}, discardLogger(), metrics, 1)

	res, err := p.Analyze(context.Background(), []domain.StationInput{input("A", goodFile)}, domain.DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, p.DeliverTo(context.Background(), res.Reports, []pipeline.Loader{bus}))

	assert.Len(t, bus.loaded, 1)
	assert.Empty(t, files.loaded)
	assert.Zero(t, files.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReportsDelivered.WithLabelValues("bus")))
}

func TestPipeline_MarkReady(t *testing.T) {
	p := pipeline.New(pipeline.NewAnalyzer(), nil, discardLogger(), observability.NewMetricsForTesting(), 1)
	p.MarkReady()
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{&domain.FormatError{Offset: 1, Byte: 0x81}, "format"},
		{fmt.Errorf("wrap: %w", &domain.DateParseError{Line: 1}), "date"},
		{&domain.ValueParseError{Line: 2}, "value"},
		{&domain.EmptySeriesError{Analysis: "period"}, "empty"},
		{&domain.OptionsError{Field: "missing strategy", Value: "x"}, "options"},
		{errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, pipeline.FailureReason(tt.err))
		})
	}
}

func TestStationAnalyzer_Analyze(t *testing.T) {
	a := pipeline.NewAnalyzer()

	r, err := a.Analyze(context.Background(), input("RIO", goodFile), domain.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "RIO", r.Station)
	assert.Equal(t, 15.0, r.Stats.Mean)
	assert.NotEmpty(t, r.ID)

	_, err = a.Analyze(context.Background(), input("BAD", "2020-01-01;0;1;x;A\n"), domain.DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "station BAD")
	assert.True(t, errors.Is(err, domain.ErrValueParse))
}
