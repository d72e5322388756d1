// Package config loads and validates harness configuration. Values come from
// built-in defaults, overridden by an optional YAML file, overridden by
// QAHARNESS_* environment variables (optionally loaded from a .env file).
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ScoringWeights are the relative weights of the five priority sub-scores.
// They must sum to 1.0.
type ScoringWeights struct {
	Severity  float64 `yaml:"severity"`
	Impact    float64 `yaml:"impact"`
	Frequency float64 `yaml:"frequency"`
	Trend     float64 `yaml:"trend"`
	Component float64 `yaml:"component"`
}

// Sum returns the total of all weights.
func (w ScoringWeights) Sum() float64 {
	return w.Severity + w.Impact + w.Frequency + w.Trend + w.Component
}

// PerformanceThresholds are the response-time and error-rate limits used by
// the performance detector.
type PerformanceThresholds struct {
	// Response times in seconds
	WarningResponseTime  float64 `yaml:"warning_response_time"`
	CriticalResponseTime float64 `yaml:"critical_response_time"`

	// Error rates as fractions (0.05 = 5%)
	WarningErrorRate  float64 `yaml:"warning_error_rate"`
	CriticalErrorRate float64 `yaml:"critical_error_rate"`
}

// Config represents harness configuration options.
type Config struct {
	// CriticalErrorRateThreshold is the per-component failure rate at or
	// above which the functionality detector emits a Critical issue.
	CriticalErrorRateThreshold float64 `yaml:"critical_error_rate_threshold"`

	// HighErrorRateThreshold is the failure rate at or above which a High
	// issue is emitted. Rates below it are treated as noise.
	HighErrorRateThreshold float64 `yaml:"high_error_rate_threshold"`

	// FrequentErrorThreshold is the minimum recurrence count for an error
	// signature to become an issue.
	FrequentErrorThreshold int `yaml:"frequent_error_threshold"`

	// DeveloperHoursPerDay converts estimated hours to estimated days.
	DeveloperHoursPerDay float64 `yaml:"developer_hours_per_day"`

	// BufferPercentage pads resource estimates (0.20 = 20%).
	BufferPercentage float64 `yaml:"buffer_percentage"`

	// MaxParallelCriticalFixes caps how many critical fixes the immediate
	// plan schedules concurrently.
	MaxParallelCriticalFixes int `yaml:"max_parallel_critical_fixes"`

	// TestTimeout is the per-test execution timeout.
	TestTimeout time.Duration `yaml:"test_timeout"`

	// MaxConcurrency bounds parallel test execution within a suite.
	// 1 (the default) means sequential execution in registration order.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Weights combine the five priority sub-scores. Must sum to 1.0.
	Weights ScoringWeights `yaml:"scoring_weights"`

	// Performance holds the performance detector thresholds.
	Performance PerformanceThresholds `yaml:"performance"`

	// HistoryDBPath is the SQLite database tracking issue occurrences
	// across runs for trend scoring. Empty disables history.
	HistoryDBPath string `yaml:"history_db_path"`

	// KnownIssuesPath is the markdown file of acknowledged issues.
	// Empty or missing file means no annotations.
	KnownIssuesPath string `yaml:"known_issues_path"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with the reference default values. The
// thresholds and weights are hand-tuned heuristics carried as configuration,
// not validated business rules.
func DefaultConfig() *Config {
	return &Config{
		CriticalErrorRateThreshold: 0.10,
		HighErrorRateThreshold:     0.05,
		FrequentErrorThreshold:     10,
		DeveloperHoursPerDay:       6,
		BufferPercentage:           0.20,
		MaxParallelCriticalFixes:   3,
		TestTimeout:                30 * time.Second,
		MaxConcurrency:             1,
		Weights: ScoringWeights{
			Severity:  0.30,
			Impact:    0.25,
			Frequency: 0.20,
			Trend:     0.15,
			Component: 0.10,
		},
		Performance: PerformanceThresholds{
			WarningResponseTime:  2.0,
			CriticalResponseTime: 5.0,
			WarningErrorRate:     0.05,
			CriticalErrorRate:    0.10,
		},
		HistoryDBPath:   filepath.Join(".qaharness", "history.db"),
		KnownIssuesPath: "",
		LogLevel:        "info",
	}
}

// Load loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations come in as strings, so unmarshal through a shadow struct.
	type yamlConfig struct {
		CriticalErrorRateThreshold *float64               `yaml:"critical_error_rate_threshold"`
		HighErrorRateThreshold     *float64               `yaml:"high_error_rate_threshold"`
		FrequentErrorThreshold     *int                   `yaml:"frequent_error_threshold"`
		DeveloperHoursPerDay       *float64               `yaml:"developer_hours_per_day"`
		BufferPercentage           *float64               `yaml:"buffer_percentage"`
		MaxParallelCriticalFixes   *int                   `yaml:"max_parallel_critical_fixes"`
		TestTimeout                string                 `yaml:"test_timeout"`
		MaxConcurrency             *int                   `yaml:"max_concurrency"`
		Weights                    *ScoringWeights        `yaml:"scoring_weights"`
		Performance                *PerformanceThresholds `yaml:"performance"`
		HistoryDBPath              *string                `yaml:"history_db_path"`
		KnownIssuesPath            *string                `yaml:"known_issues_path"`
		LogLevel                   string                 `yaml:"log_level"`
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yc.CriticalErrorRateThreshold != nil {
		cfg.CriticalErrorRateThreshold = *yc.CriticalErrorRateThreshold
	}
	if yc.HighErrorRateThreshold != nil {
		cfg.HighErrorRateThreshold = *yc.HighErrorRateThreshold
	}
	if yc.FrequentErrorThreshold != nil {
		cfg.FrequentErrorThreshold = *yc.FrequentErrorThreshold
	}
	if yc.DeveloperHoursPerDay != nil {
		cfg.DeveloperHoursPerDay = *yc.DeveloperHoursPerDay
	}
	if yc.BufferPercentage != nil {
		cfg.BufferPercentage = *yc.BufferPercentage
	}
	if yc.MaxParallelCriticalFixes != nil {
		cfg.MaxParallelCriticalFixes = *yc.MaxParallelCriticalFixes
	}
	if yc.TestTimeout != "" {
		timeout, err := time.ParseDuration(yc.TestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid test_timeout format %q: %w", yc.TestTimeout, err)
		}
		cfg.TestTimeout = timeout
	}
	if yc.MaxConcurrency != nil {
		cfg.MaxConcurrency = *yc.MaxConcurrency
	}
	if yc.Weights != nil {
		cfg.Weights = *yc.Weights
	}
	if yc.Performance != nil {
		cfg.Performance = *yc.Performance
	}
	if yc.HistoryDBPath != nil {
		cfg.HistoryDBPath = *yc.HistoryDBPath
	}
	if yc.KnownIssuesPath != nil {
		cfg.KnownIssuesPath = *yc.KnownIssuesPath
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}

	return cfg, nil
}

// LoadWithEnv loads configuration from the file path, then applies
// QAHARNESS_* environment variable overrides. If envFile names an existing
// dotenv file it is loaded into the environment first.
func LoadWithEnv(path, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from QAHARNESS_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("QAHARNESS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("QAHARNESS_HISTORY_DB"); v != "" {
		c.HistoryDBPath = v
	}
	if v := os.Getenv("QAHARNESS_KNOWN_ISSUES"); v != "" {
		c.KnownIssuesPath = v
	}
	if v := os.Getenv("QAHARNESS_TEST_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid QAHARNESS_TEST_TIMEOUT %q: %w", v, err)
		}
		c.TestTimeout = timeout
	}
	if v := os.Getenv("QAHARNESS_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QAHARNESS_MAX_CONCURRENCY %q: %w", v, err)
		}
		c.MaxConcurrency = n
	}
	return nil
}

// Validate validates the configuration values. It returns an error for any
// value that would corrupt downstream scoring or planning; broken weights in
// particular must fail here rather than silently skewing every priority.
func (c *Config) Validate() error {
	if c.CriticalErrorRateThreshold <= 0 || c.CriticalErrorRateThreshold > 1 {
		return fmt.Errorf("critical_error_rate_threshold must be in (0, 1], got %v", c.CriticalErrorRateThreshold)
	}
	if c.HighErrorRateThreshold <= 0 || c.HighErrorRateThreshold > 1 {
		return fmt.Errorf("high_error_rate_threshold must be in (0, 1], got %v", c.HighErrorRateThreshold)
	}
	if c.HighErrorRateThreshold > c.CriticalErrorRateThreshold {
		return fmt.Errorf("high_error_rate_threshold (%v) must not exceed critical_error_rate_threshold (%v)",
			c.HighErrorRateThreshold, c.CriticalErrorRateThreshold)
	}
	if c.FrequentErrorThreshold <= 0 {
		return fmt.Errorf("frequent_error_threshold must be > 0, got %d", c.FrequentErrorThreshold)
	}
	if c.DeveloperHoursPerDay <= 0 {
		return fmt.Errorf("developer_hours_per_day must be > 0, got %v", c.DeveloperHoursPerDay)
	}
	if c.BufferPercentage < 0 {
		return fmt.Errorf("buffer_percentage must be >= 0, got %v", c.BufferPercentage)
	}
	if c.MaxParallelCriticalFixes <= 0 {
		return fmt.Errorf("max_parallel_critical_fixes must be > 0, got %d", c.MaxParallelCriticalFixes)
	}
	if c.TestTimeout <= 0 {
		return fmt.Errorf("test_timeout must be > 0, got %v", c.TestTimeout)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}

	for name, w := range map[string]float64{
		"severity":  c.Weights.Severity,
		"impact":    c.Weights.Impact,
		"frequency": c.Weights.Frequency,
		"trend":     c.Weights.Trend,
		"component": c.Weights.Component,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("scoring_weights.%s must be in [0, 1], got %v", name, w)
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", sum)
	}

	if c.Performance.WarningResponseTime <= 0 || c.Performance.CriticalResponseTime <= 0 {
		return fmt.Errorf("performance response time thresholds must be > 0")
	}
	if c.Performance.WarningResponseTime > c.Performance.CriticalResponseTime {
		return fmt.Errorf("performance warning_response_time (%v) must not exceed critical_response_time (%v)",
			c.Performance.WarningResponseTime, c.Performance.CriticalResponseTime)
	}
	if c.Performance.WarningErrorRate > c.Performance.CriticalErrorRate {
		return fmt.Errorf("performance warning_error_rate (%v) must not exceed critical_error_rate (%v)",
			c.Performance.WarningErrorRate, c.Performance.CriticalErrorRate)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	return nil
}
