// Package config provides configuration management for the estimation
// pipeline and its serving side.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"especulai/internal/trainer"
)

// Configuration validation errors.
var (
	ErrUnknownInputKind       = errors.New("input.kind must be 'csv' or 'postgres'")
	ErrMissingCSVPath         = errors.New("input.csv_path is required for the csv source")
	ErrMissingPostgresDSN     = errors.New("input.postgres_dsn is required for the postgres source")
	ErrMissingIndexPath       = errors.New("enrichment.index_path is required")
	ErrMissingDataDir         = errors.New("output.data_dir is required")
	ErrMissingArtifactDir     = errors.New("output.artifact_dir is required")
	ErrInvalidIQRMultiplier   = errors.New("quality.iqr_multiplier must be positive")
	ErrInvalidHoldoutRatio    = errors.New("training.holdout_ratio must be in (0, 1)")
	ErrInvalidMinSegmentRows  = errors.New("training.min_segment_rows must be at least 1")
	ErrInvalidConfidenceOrder = errors.New("confidence.high must not exceed confidence.medium")
	ErrInvalidCandidate       = errors.New("training.candidates entries need a name and a kind")
	ErrInvalidLogLevel        = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Environment override keys, loaded from the process environment and
// an optional .env file. Secrets like the DSN never belong in YAML.
const (
	envPostgresDSN = "ESPECULAI_POSTGRES_DSN"
	envCSVPath     = "ESPECULAI_CSV_PATH"
	envIndexPath   = "ESPECULAI_INDEX_PATH"
	envArtifactDir = "ESPECULAI_ARTIFACT_DIR"
	envDataDir     = "ESPECULAI_DATA_DIR"
)

// Config is the complete pipeline configuration.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Quality    QualityConfig    `yaml:"quality"`
	Training   TrainingConfig   `yaml:"training"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// InputConfig selects and parameterizes the raw listing source.
type InputConfig struct {
	Kind          string `yaml:"kind"`
	CSVPath       string `yaml:"csv_path"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	PostgresTable string `yaml:"postgres_table"`
}

// EnrichmentConfig parameterizes the economic index join and the
// geospatial bucket mapping.
type EnrichmentConfig struct {
	IndexPath string `yaml:"index_path"`
	// GeoBuckets maps neighborhood names to coarse buckets.
	GeoBuckets map[string]string `yaml:"geo_buckets"`
}

// QualityConfig parameterizes outlier filtering.
type QualityConfig struct {
	IQRMultiplier float64 `yaml:"iqr_multiplier"`
}

// TrainingConfig parameterizes segmentation and model training.
type TrainingConfig struct {
	PreferredSource string                    `yaml:"preferred_source"`
	MinSegmentRows  int                       `yaml:"min_segment_rows"`
	HoldoutRatio    float64                   `yaml:"holdout_ratio"`
	Seed            int64                     `yaml:"seed"`
	PropertyTypes   []string                  `yaml:"property_types"`
	Candidates      []trainer.CandidateConfig `yaml:"candidates"`
}

// ConfidenceConfig holds the relative-error thresholds frozen into the
// exported model.
type ConfidenceConfig struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// OutputConfig defines where datasets, artifacts and the metrics
// history land.
type OutputConfig struct {
	DataDir     string `yaml:"data_dir"`
	ArtifactDir string `yaml:"artifact_dir"`
	MetricsLog  string `yaml:"metrics_log"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the YAML file, applies environment overrides and
// validates the result. A .env file next to the process, when present,
// is merged into the environment first.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Input.Kind == "" {
		c.Input.Kind = "csv"
	}

	if c.Input.PostgresTable == "" {
		c.Input.PostgresTable = "anuncios"
	}

	if c.Quality.IQRMultiplier == 0 {
		c.Quality.IQRMultiplier = 1.5
	}

	if c.Training.PreferredSource == "" {
		c.Training.PreferredSource = "OLX"
	}

	if c.Training.MinSegmentRows == 0 {
		c.Training.MinSegmentRows = 30
	}

	if c.Training.HoldoutRatio == 0 {
		c.Training.HoldoutRatio = 0.2
	}

	if c.Training.Seed == 0 {
		c.Training.Seed = 42
	}

	if len(c.Training.Candidates) == 0 {
		c.Training.Candidates = trainer.DefaultCandidates()
	}

	if c.Confidence.High == 0 {
		c.Confidence.High = trainer.DefaultConfidenceThresholds.High
	}

	if c.Confidence.Medium == 0 {
		c.Confidence.Medium = trainer.DefaultConfidenceThresholds.Medium
	}

	if c.Output.MetricsLog == "" && c.Output.DataDir != "" {
		c.Output.MetricsLog = c.Output.DataDir + "/metricas.tab"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(envPostgresDSN); v != "" {
		c.Input.PostgresDSN = v
	}

	if v := os.Getenv(envCSVPath); v != "" {
		c.Input.CSVPath = v
	}

	if v := os.Getenv(envIndexPath); v != "" {
		c.Enrichment.IndexPath = v
	}

	if v := os.Getenv(envArtifactDir); v != "" {
		c.Output.ArtifactDir = v
	}

	if v := os.Getenv(envDataDir); v != "" {
		c.Output.DataDir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Input.Kind {
	case "csv":
		if c.Input.CSVPath == "" {
			return ErrMissingCSVPath
		}
	case "postgres":
		if c.Input.PostgresDSN == "" {
			return ErrMissingPostgresDSN
		}
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownInputKind, c.Input.Kind)
	}

	if c.Enrichment.IndexPath == "" {
		return ErrMissingIndexPath
	}

	if c.Output.DataDir == "" {
		return ErrMissingDataDir
	}

	if c.Output.ArtifactDir == "" {
		return ErrMissingArtifactDir
	}

	if c.Quality.IQRMultiplier <= 0 {
		return ErrInvalidIQRMultiplier
	}

	if c.Training.HoldoutRatio <= 0 || c.Training.HoldoutRatio >= 1 {
		return ErrInvalidHoldoutRatio
	}

	if c.Training.MinSegmentRows < 1 {
		return ErrInvalidMinSegmentRows
	}

	if c.Confidence.High > c.Confidence.Medium {
		return ErrInvalidConfidenceOrder
	}

	for i, cand := range c.Training.Candidates {
		if cand.Name == "" || cand.Kind == "" {
			return fmt.Errorf("%w: candidates[%d]", ErrInvalidCandidate, i)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return nil
}

// ConfidenceThresholds returns the thresholds in the trainer's form.
func (c *Config) ConfidenceThresholds() trainer.ConfidenceThresholds {
	return trainer.ConfidenceThresholds{High: c.Confidence.High, Medium: c.Confidence.Medium}
}
