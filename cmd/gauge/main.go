// Command gauge analyzes daily river gauge files from the command line and
// writes one results_<STATION>.txt report per station.
//
// Usage:
//
//	go run ./cmd/gauge -dir data/gauges -out reports
//	go run ./cmd/gauge -strategy monthly -xlsx summary.xlsx RIO_ALTO.txt RIO_BAJO.txt
//	go run ./cmd/gauge -json RIO_ALTO.txt > rio_alto.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/river-gauge-etl/internal/adapter/excel"
	"github.com/couchcryptid/river-gauge-etl/internal/adapter/fs"
	"github.com/couchcryptid/river-gauge-etl/internal/adapter/report"
	"github.com/couchcryptid/river-gauge-etl/internal/config"
	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
	"github.com/couchcryptid/river-gauge-etl/internal/pipeline"
)

type cliOptions struct {
	dir      string
	files    []string
	outDir   string
	xlsxPath string
	asJSON   bool
	workers  int
	logLevel string
	analysis domain.Options
}

func main() {
	dir := flag.String("dir", "", "directory of station .txt files (ignored when files are given)")
	outDir := flag.String("out", ".", "directory for results_<STATION>.txt reports; empty disables them")
	xlsxPath := flag.String("xlsx", "", "optional path for a summary workbook")
	asJSON := flag.Bool("json", false, "print reports as JSON on stdout")
	strategy := flag.String("strategy", string(domain.StrategyMask), "missing-value strategy: mask, mean or monthly")
	columns := flag.String("columns", string(domain.ColumnsAtLeast), "column policy: at_least or exact")
	window := flag.Int("window", domain.DefaultLowFlowWindow, "low-flow averaging window in days")
	workers := flag.Int("workers", 4, "stations analyzed concurrently")
	logLevel := flag.String("log-level", "warn", "log level: debug, info, warn or error")
	flag.Parse()

	s, ok := domain.ParseMissingStrategy(*strategy)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid -strategy %q\n", *strategy)
		os.Exit(2)
	}
	c, ok := domain.ParseColumnPolicy(*columns)
	if !ok {
		fmt.Fprintf(os.Stderr, "invalid -columns %q\n", *columns)
		os.Exit(2)
	}
	if *window < 1 || *workers < 1 {
		fmt.Fprintln(os.Stderr, "-window and -workers must be positive")
		os.Exit(2)
	}
	if *dir == "" && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(cliOptions{
		dir:      *dir,
		files:    flag.Args(),
		outDir:   *outDir,
		xlsxPath: *xlsxPath,
		asJSON:   *asJSON,
		workers:  *workers,
		logLevel: *logLevel,
		analysis: domain.Options{Columns: c, Strategy: s, LowFlowWindow: *window},
	}))
}

func run(o cliOptions) int {
	logger := observability.NewLogger(&config.Config{LogLevel: o.logLevel, LogFormat: "text"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var src pipeline.Source = fs.NewDirSource(o.dir)
	if len(o.files) > 0 {
		src = fs.NewFileSource(o.files...)
	}

	var loaders []pipeline.Loader
	if o.outDir != "" {
		if err := os.MkdirAll(o.outDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", o.outDir, err)
			return 1
		}
		loaders = append(loaders, report.NewTextWriter(o.outDir, logger))
	}
	if o.xlsxPath != "" {
		loaders = append(loaders, excel.NewFileWriter(o.xlsxPath, logger))
	}

	p := pipeline.New(pipeline.NewAnalyzer(), loaders, logger, observability.NewMetrics(), o.workers)
	res, err := p.Run(ctx, src, o.analysis)
	if res == nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	for _, f := range res.Failures {
		fmt.Fprintf(os.Stderr, "%s (%s): %v\n", f.Station, f.Source, f.Err)
	}

	if o.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res.Reports); encErr != nil {
			fmt.Fprintf(os.Stderr, "encode reports: %v\n", encErr)
			return 1
		}
	} else {
		for _, r := range res.Reports {
			fmt.Printf("%-20s %s..%s  %5d observed  mean %.2f\n",
				r.Station,
				r.Period.StartDate.Format("2006-01-02"),
				r.Period.EndDate.Format("2006-01-02"),
				r.Period.ObservedCount,
				r.Stats.Mean)
		}
	}

	switch {
	case err != nil:
		fmt.Fprintf(os.Stderr, "delivery failed: %v\n", err)
		return 1
	case len(res.Reports) == 0 && len(res.Failures) > 0:
		return 1
	}
	logger.Debug("run complete", "run_id", res.RunID)
	return 0
}
