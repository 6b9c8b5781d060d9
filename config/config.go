// Package config loads the benchmark settings from defaults, a YAML file
// and PNGBENCH_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"pngsize-benchmark/benchmark"
)

const envPrefix = "PNGBENCH_"

// Config represents the complete run configuration
type Config struct {
	Source        string         `yaml:"source"`
	Directory     string         `yaml:"directory"`
	Runs          int            `yaml:"runs"`
	Strategies    RangeConfig    `yaml:"strategies"`
	OracleTimeout time.Duration  `yaml:"oracle_timeout"`
	LogLevel      string         `yaml:"log_level"`
	Output        string         `yaml:"output"`
	S3            S3Config       `yaml:"s3"`
	Redis         RedisConfig    `yaml:"redis"`
	Metrics       MetricsConfig  `yaml:"metrics"`
	Baseline      BaselineConfig `yaml:"baseline"`
}

// RangeConfig selects strategies [Start, End) of the fixed list
type RangeConfig struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// S3Config is used when Source is "s3"
type S3Config struct {
	Bucket         string `yaml:"bucket"`
	Prefix         string `yaml:"prefix"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// RedisConfig enables the Redis reporter when Address is set
type RedisConfig struct {
	Address   string `yaml:"address"`
	KeyPrefix string `yaml:"key_prefix"`
	Channel   string `yaml:"channel"`
}

// MetricsConfig enables Prometheus export when either target is set
type MetricsConfig struct {
	Textfile    string `yaml:"textfile"`
	Pushgateway string `yaml:"pushgateway"`
	Job         string `yaml:"job"`
	Namespace   string `yaml:"namespace"`
}

// BaselineConfig controls the decode-oracle comparison
type BaselineConfig struct {
	Enabled    bool  `yaml:"enabled"`
	MaxEntries int64 `yaml:"max_entries"`
}

const (
	SourceLocal = "local"
	SourceS3    = "s3"

	OutputTable = "table"
	OutputJSON  = "json"
)

// NewDefault creates a configuration with default values
func NewDefault() *Config {
	return &Config{
		Source:        SourceLocal,
		Runs:          1,
		Strategies:    RangeConfig{Start: 0, End: benchmark.NumKinds},
		OracleTimeout: 5 * time.Second,
		LogLevel:      "INFO",
		Output:        OutputTable,
		Redis: RedisConfig{
			KeyPrefix: "pngbench",
			Channel:   "pngbench-results",
		},
		Metrics: MetricsConfig{
			Job:       "pngbench",
			Namespace: "pngbench",
		},
		Baseline: BaselineConfig{
			Enabled:    false,
			MaxEntries: 100000,
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if val := os.Getenv(envPrefix + "SOURCE"); val != "" {
		c.Source = val
	}
	if val := os.Getenv(envPrefix + "DIRECTORY"); val != "" {
		c.Directory = val
	}
	if val := os.Getenv(envPrefix + "RUNS"); val != "" {
		runs, err := benchmark.ParseRepeatCount(val)
		if err != nil {
			return err
		}
		c.Runs = runs
	}
	if val := os.Getenv(envPrefix + "LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv(envPrefix + "OUTPUT"); val != "" {
		c.Output = val
	}
	if val := os.Getenv(envPrefix + "ORACLE_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid %sORACLE_TIMEOUT: %w", envPrefix, err)
		}
		c.OracleTimeout = d
	}

	// S3 settings
	if val := os.Getenv(envPrefix + "S3_BUCKET"); val != "" {
		c.S3.Bucket = val
	}
	if val := os.Getenv(envPrefix + "S3_PREFIX"); val != "" {
		c.S3.Prefix = val
	}
	if val := os.Getenv(envPrefix + "S3_REGION"); val != "" {
		c.S3.Region = val
	}
	if val := os.Getenv(envPrefix + "S3_ENDPOINT"); val != "" {
		c.S3.Endpoint = val
	}

	if val := os.Getenv(envPrefix + "REDIS_ADDRESS"); val != "" {
		c.Redis.Address = val
	}
	if val := os.Getenv(envPrefix + "METRICS_TEXTFILE"); val != "" {
		c.Metrics.Textfile = val
	}
	if val := os.Getenv(envPrefix + "PUSHGATEWAY"); val != "" {
		c.Metrics.Pushgateway = val
	}
	if val := os.Getenv(envPrefix + "BASELINE"); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %sBASELINE: %w", envPrefix, err)
		}
		c.Baseline.Enabled = enabled
	}

	return nil
}

// Validate checks the settings that are not part of the run itself. The
// directory, repeat count and strategy range are checked by the runner.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return &benchmark.ConfigError{Field: "log_level", Reason: err.Error()}
	}
	switch c.Source {
	case SourceLocal:
	case SourceS3:
		if c.S3.Bucket == "" {
			return &benchmark.ConfigError{Field: "s3.bucket", Reason: "required when source is s3"}
		}
	default:
		return &benchmark.ConfigError{Field: "source", Reason: fmt.Sprintf("unknown source %q", c.Source)}
	}
	switch c.Output {
	case OutputTable, OutputJSON:
	default:
		return &benchmark.ConfigError{Field: "output", Reason: fmt.Sprintf("unknown output %q", c.Output)}
	}
	if c.OracleTimeout <= 0 {
		return &benchmark.ConfigError{Field: "oracle_timeout", Reason: "must be positive"}
	}
	if c.Baseline.Enabled && c.Baseline.MaxEntries <= 0 {
		return &benchmark.ConfigError{Field: "baseline.max_entries", Reason: "must be positive"}
	}
	return nil
}

// ParseLogLevel parses a string log level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}
