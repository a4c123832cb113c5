package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/river-gauge-etl/internal/adapter/excel"
	"github.com/couchcryptid/river-gauge-etl/internal/adapter/fs"
	httpadapter "github.com/couchcryptid/river-gauge-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/river-gauge-etl/internal/adapter/kafka"
	"github.com/couchcryptid/river-gauge-etl/internal/adapter/report"
	"github.com/couchcryptid/river-gauge-etl/internal/config"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
	"github.com/couchcryptid/river-gauge-etl/internal/pipeline"
)

const summaryWorkbook = "gauge_summary.xlsx"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	shutdownTracing, err := observability.InitTracing(cfg.TracingEnabled, nil)
	if err != nil {
		logger.Error("failed to init tracing", "error", err)
		os.Exit(1)
	}

	analyzer := pipeline.NewCachedAnalyzer(pipeline.NewAnalyzer(), cfg.AnalysisCacheSize, metrics)

	var loaders []pipeline.Loader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka delivery enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}
	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			logger.Error("failed to create output dir", "dir", cfg.OutputDir, "error", err)
			os.Exit(1)
		}
		loaders = append(loaders,
			report.NewTextWriter(cfg.OutputDir, logger),
			excel.NewFileWriter(filepath.Join(cfg.OutputDir, summaryWorkbook), logger),
		)
		logger.Info("file reports enabled", "dir", cfg.OutputDir)
	}

	p := pipeline.New(analyzer, loaders, logger, metrics, cfg.AnalysisConcurrency)

	// Uploads publish to the message sink only; the file sinks keep the startup batch.
	var publishers []pipeline.Loader
	if writer != nil {
		publishers = append(publishers, writer)
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, httpadapter.Options{
		Defaults:       cfg.AnalysisOptions(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Publishers:     publishers,
	}, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Analyze the configured data directory once, then serve uploads.
	go func() {
		if cfg.DataDir == "" {
			p.MarkReady()
			return
		}
		res, err := p.Run(ctx, fs.NewDirSource(cfg.DataDir), cfg.AnalysisOptions())
		if err != nil {
			logger.Error("startup batch error", "dir", cfg.DataDir, "error", err)
			p.MarkReady()
			return
		}
		logger.Info("startup batch complete",
			"run_id", res.RunID,
			"reports", len(res.Reports),
			"failures", len(res.Failures),
		)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
