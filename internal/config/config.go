package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Batch input and report output directories. An empty DataDir disables the
	// startup batch; an empty OutputDir disables file reports.
	DataDir   string
	OutputDir string

	// Analysis defaults, overridable per HTTP request.
	MissingStrategy domain.MissingStrategy
	ColumnPolicy    domain.ColumnPolicy
	LowFlowWindow   int

	AnalysisConcurrency int
	AnalysisCacheSize   int
	MaxUploadBytes      int64

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	TracingEnabled bool
}

// AnalysisOptions returns the configured analysis defaults.
func (c *Config) AnalysisOptions() domain.Options {
	return domain.Options{
		Columns:       c.ColumnPolicy,
		Strategy:      c.MissingStrategy,
		LowFlowWindow: c.LowFlowWindow,
	}
}

// LoadDotEnv loads variables from a dotenv file without overriding ones already
// set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	strategy, ok := domain.ParseMissingStrategy(sharedcfg.EnvOrDefault("MISSING_STRATEGY", string(domain.StrategyMask)))
	if !ok {
		return nil, errors.New("invalid MISSING_STRATEGY: must be mask, mean or monthly")
	}

	columns, ok := domain.ParseColumnPolicy(sharedcfg.EnvOrDefault("COLUMN_POLICY", string(domain.ColumnsAtLeast)))
	if !ok {
		return nil, errors.New("invalid COLUMN_POLICY: must be at_least or exact")
	}

	concurrency, err := parsePositiveInt("ANALYSIS_CONCURRENCY", 4, 256)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("ANALYSIS_CACHE_SIZE", 256, 100000)
	if err != nil {
		return nil, err
	}
	window, err := parsePositiveInt("LOW_FLOW_WINDOW", domain.DefaultLowFlowWindow, 366)
	if err != nil {
		return nil, err
	}
	maxUpload, err := parsePositiveInt("MAX_UPLOAD_BYTES", 32<<20, 1<<30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:   os.Getenv("DATA_DIR"),
		OutputDir: os.Getenv("OUTPUT_DIR"),

		MissingStrategy: strategy,
		ColumnPolicy:    columns,
		LowFlowWindow:   window,

		AnalysisConcurrency: concurrency,
		AnalysisCacheSize:   cacheSize,
		MaxUploadBytes:      int64(maxUpload),

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "gauge-station-reports"),

		TracingEnabled: os.Getenv("TRACING_ENABLED") == "true",
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parsePositiveInt(key string, fallback, upper int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > upper {
		return 0, fmt.Errorf("invalid %s: must be 1-%d", key, upper)
	}
	return n, nil
}
