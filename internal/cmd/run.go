package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackline/qaharness/internal/analyzer"
	"github.com/stackline/qaharness/internal/config"
	"github.com/stackline/qaharness/internal/history"
	"github.com/stackline/qaharness/internal/knownissues"
	"github.com/stackline/qaharness/internal/logger"
	"github.com/stackline/qaharness/internal/models"
	"github.com/stackline/qaharness/internal/planner"
	"github.com/stackline/qaharness/internal/runner"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all registered test suites and report issues",
		Long: `Run executes every registered suite category in fixed order,
analyzes the outcomes into prioritized issues, and builds improvement plans.

Configuration is loaded from .qaharness/config.yaml if present; QAHARNESS_*
environment variables (optionally from a .env file) override it, and CLI
flags override both.

Examples:
  qaharness run
  qaharness run --output report.json
  qaharness run --parallel 4 --verbose
  qaharness run --config custom.yaml --env-file staging.env`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}

	cmd.Flags().String("config", ".qaharness/config.yaml", "Path to config file")
	cmd.Flags().String("env-file", ".env", "Path to .env override file")
	cmd.Flags().String("output", "", "Write the JSON report to this file (default: stdout)")
	cmd.Flags().Int("parallel", 0, "Maximum concurrent tests per suite (overrides config)")
	cmd.Flags().String("timeout", "", "Per-test timeout (e.g. 30s, 2m; overrides config)")
	cmd.Flags().Bool("verbose", false, "Show per-test results")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.LoadWithEnv(configPath, envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// CLI flags take precedence over file and environment.
	if cmd.Flags().Changed("parallel") {
		cfg.MaxConcurrency, _ = cmd.Flags().GetInt("parallel")
	}
	if cmd.Flags().Changed("timeout") {
		timeoutStr, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		cfg.TestTimeout = timeout
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewConsoleLogger(cmd.OutOrStdout(), cfg.LogLevel)

	report, err := executeRun(cfg, log)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if err := writeReport(cmd, report, outputPath); err != nil {
		return err
	}

	if report.OverallStatus == models.OverallFail {
		return fmt.Errorf("run finished with status %s", report.OverallStatus)
	}
	return nil
}

// executeRun builds the full pipeline from configuration and runs it once.
// A broken history database degrades to stable trends with a warning; a
// malformed known-issues register is a configuration error.
func executeRun(cfg *config.Config, log *logger.ConsoleLogger) (*models.Report, error) {
	opts := analyzer.Options{Logger: log}

	var store *history.Store
	if cfg.HistoryDBPath != "" {
		s, err := history.NewStore(cfg.HistoryDBPath)
		if err != nil {
			log.Warnf("history store unavailable, trends default to stable: %v", err)
		} else {
			store = s
			opts.Trends = s
			defer s.Close()
		}
	}

	if cfg.KnownIssuesPath != "" {
		reg, err := knownissues.Load(cfg.KnownIssuesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known issues register: %w", err)
		}
		opts.Known = reg
	}

	testRunner := runner.NewTestRunner(cfg.TestTimeout, log)
	suiteRunner := runner.NewSuiteRunner(testRunner, log, cfg.MaxConcurrency)
	orch := runner.NewOrchestrator(
		suiteRunner,
		nil,
		analyzer.NewAnalyzerWithOptions(cfg, opts),
		planner.NewPlanner(cfg),
		log,
	)

	fixtures := demoFixtures()
	registerDemoSuites(orch)

	report := orch.RunAll(runner.NewContext(nil, nil, fixtures))

	if store != nil {
		totals := report.Totals()
		if err := store.RecordRun(report.StartedAt, totals.Total(), totals.Failed+totals.Errored, report.Issues); err != nil {
			log.Warnf("failed to record run history: %v", err)
		}
	}

	return report, nil
}

// writeReport marshals the report as indented JSON to the given file, or to
// the command's stdout when no path is set.
func writeReport(cmd *cobra.Command, report *models.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if path == "" || path == "-" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	return nil
}
