package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
)

const tracerName = "github.com/couchcryptid/river-gauge-etl/internal/pipeline"

// Delivery retry schedule: start at 200ms, double each attempt, cap at 2s.
const (
	deliveryAttempts   = 3
	deliveryBackoff    = 200 * time.Millisecond
	deliveryMaxBackoff = 2 * time.Second
)

// Source lists the station files for one batch.
type Source interface {
	Inputs(ctx context.Context) ([]domain.StationInput, error)
}

// Analyzer turns one station file into a report.
type Analyzer interface {
	Analyze(ctx context.Context, in domain.StationInput, opts domain.Options) (domain.StationReport, error)
}

// Loader delivers a batch of reports to a sink.
type Loader interface {
	Name() string
	Load(ctx context.Context, reports []domain.StationReport) error
}

// StationFailure records a station whose analysis failed. Other stations in the
// batch are unaffected.
type StationFailure struct {
	Station string
	Source  string
	Err     error
}

// Result is the outcome of one batch. Reports keep the input order of the
// stations that succeeded.
type Result struct {
	RunID    string
	Reports  []domain.StationReport
	Failures []StationFailure
}

// Pipeline fans station files out to an Analyzer and hands the reports to Loaders.
type Pipeline struct {
	analyzer    Analyzer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	concurrency int
	ready       atomic.Bool
}

// New creates a Pipeline. concurrency bounds how many stations are analyzed at once.
func New(a Analyzer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, concurrency int) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		analyzer:    a,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// CheckReadiness returns nil once the pipeline has finished a batch or was marked
// ready, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a batch yet")
	}
	return nil
}

// MarkReady flags the pipeline ready without running a batch.
func (p *Pipeline) MarkReady() { p.ready.Store(true) }

// Run reads every input from src, analyzes it and delivers the reports.
func (p *Pipeline) Run(ctx context.Context, src Source, opts domain.Options) (*Result, error) {
	inputs, err := src.Inputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	return p.Process(ctx, inputs, opts)
}

// Process analyzes inputs and delivers the reports to every loader. Station
// failures are reported in the Result; the error covers cancellation and
// delivery failures. A delivery error still returns the Result.
func (p *Pipeline) Process(ctx context.Context, inputs []domain.StationInput, opts domain.Options) (*Result, error) {
	start := time.Now()
	res, err := p.Analyze(ctx, inputs, opts)
	if err != nil {
		return nil, err
	}

	err = p.Deliver(ctx, res.Reports)
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return res, err
}

// Analyze runs the analyzer over inputs with bounded concurrency. It only fails
// when ctx is cancelled.
func (p *Pipeline) Analyze(ctx context.Context, inputs []domain.StationInput, opts domain.Options) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", runID), attribute.Int("stations", len(inputs)))

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	p.metrics.BatchSize.Observe(float64(len(inputs)))
	logger.Info("batch started", "stations", len(inputs), "strategy", opts.Strategy, "columns", opts.Columns)

	reports := make([]*domain.StationReport, len(inputs))
	failures := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := p.analyzeOne(gctx, in, opts)
			if err != nil {
				failures[i] = err
				return nil
			}
			reports[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch cancelled")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Reports: make([]domain.StationReport, 0, len(inputs))}
	for i, in := range inputs {
		if failures[i] != nil {
			logger.Warn("station analysis failed, skipping",
				"station", in.Station,
				"source", in.Source,
				"error", failures[i],
			)
			res.Failures = append(res.Failures, StationFailure{Station: in.Station, Source: in.Source, Err: failures[i]})
			continue
		}
		res.Reports = append(res.Reports, *reports[i])
	}

	logger.Info("batch analyzed", "reports", len(res.Reports), "failures", len(res.Failures))
	return res, nil
}

func (p *Pipeline) analyzeOne(ctx context.Context, in domain.StationInput, opts domain.Options) (domain.StationReport, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.station",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("station", in.Station),
			attribute.String("source", in.Source),
			attribute.Int("bytes", len(in.Data)),
		),
	)
	defer span.End()

	start := time.Now()
	r, err := p.analyzer.Analyze(ctx, in, opts)
	p.metrics.StationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		p.metrics.StationErrors.WithLabelValues(FailureReason(err)).Inc()
		return domain.StationReport{}, err
	}
	p.metrics.StationsAnalyzed.Inc()
	return r, nil
}

// Deliver hands reports to every configured loader.
func (p *Pipeline) Deliver(ctx context.Context, reports []domain.StationReport) error {
	return p.DeliverTo(ctx, reports, p.loaders)
}

// DeliverTo hands reports to the given loaders only, retrying each with backoff.
// Failures are joined; one loader failing does not stop the others.
func (p *Pipeline) DeliverTo(ctx context.Context, reports []domain.StationReport, loaders []Loader) error {
	if len(reports) == 0 {
		return nil
	}
	var errs []error
	for _, l := range loaders {
		if err := p.deliver(ctx, l, reports); err != nil {
			p.metrics.DeliveryErrors.WithLabelValues(l.Name()).Inc()
			p.logger.Error("deliver reports failed", "sink", l.Name(), "reports", len(reports), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", l.Name(), err))
			continue
		}
		p.metrics.ReportsDelivered.WithLabelValues(l.Name()).Add(float64(len(reports)))
	}
	return errors.Join(errs...)
}

func (p *Pipeline) deliver(ctx context.Context, l Loader, reports []domain.StationReport) error {
	backoff := deliveryBackoff
	var err error
	for attempt := 1; attempt <= deliveryAttempts; attempt++ {
		if err = l.Load(ctx, reports); err == nil {
			return nil
		}
		if attempt == deliveryAttempts || ctx.Err() != nil {
			break
		}
		p.logger.Warn("deliver reports failed, retrying", "sink", l.Name(), "attempt", attempt, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, deliveryMaxBackoff)
	}
	return err
}

// FailureReason maps an analysis error to a short metric label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrFormat):
		return "format"
	case errors.Is(err, domain.ErrDateParse):
		return "date"
	case errors.Is(err, domain.ErrValueParse):
		return "value"
	case errors.Is(err, domain.ErrEmptySeries):
		return "empty"
	case errors.Is(err, domain.ErrOptions):
		return "options"
	default:
		return "other"
	}
}
