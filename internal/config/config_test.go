package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.10, cfg.CriticalErrorRateThreshold)
	assert.Equal(t, 0.05, cfg.HighErrorRateThreshold)
	assert.Equal(t, 10, cfg.FrequentErrorThreshold)
	assert.Equal(t, 6.0, cfg.DeveloperHoursPerDay)
	assert.Equal(t, 30*time.Second, cfg.TestTimeout)
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
high_error_rate_threshold: 0.02
test_timeout: 45s
scoring_weights:
  severity: 0.4
  impact: 0.2
  frequency: 0.2
  trend: 0.1
  component: 0.1
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.02, cfg.HighErrorRateThreshold)
	assert.Equal(t, 45*time.Second, cfg.TestTimeout)
	assert.Equal(t, 0.4, cfg.Weights.Severity)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Untouched keys keep their defaults.
	assert.Equal(t, 0.10, cfg.CriticalErrorRateThreshold)
	assert.Equal(t, 3, cfg.MaxParallelCriticalFixes)

	require.NoError(t, cfg.Validate())
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadInvalidTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("test_timeout: banana"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("QAHARNESS_LOG_LEVEL=trace\nQAHARNESS_TEST_TIMEOUT=5s\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("QAHARNESS_LOG_LEVEL")
		os.Unsetenv("QAHARNESS_TEST_TIMEOUT")
	})

	cfg, err := LoadWithEnv(filepath.Join(dir, "missing.yaml"), envFile)
	require.NoError(t, err)

	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.TestTimeout)
}

func TestValidateRejectsBrokenWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Severity = 0.9 // sum now 1.6

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestValidateRejectsNegativeWeight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Trend = -0.15
	cfg.Weights.Severity = 0.60 // keep the sum at 1.0

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HighErrorRateThreshold = 0.20 // above the critical threshold

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frequent error threshold", func(c *Config) { c.FrequentErrorThreshold = 0 }},
		{"zero developer hours", func(c *Config) { c.DeveloperHoursPerDay = 0 }},
		{"negative buffer", func(c *Config) { c.BufferPercentage = -0.1 }},
		{"zero timeout", func(c *Config) { c.TestTimeout = 0 }},
		{"zero concurrency", func(c *Config) { c.MaxConcurrency = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"inverted perf response times", func(c *Config) { c.Performance.WarningResponseTime = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
