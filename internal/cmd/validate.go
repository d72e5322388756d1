package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackline/qaharness/internal/config"
	"github.com/stackline/qaharness/internal/knownissues"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and the known-issues register",
		Long: `Validate loads the configuration (file, environment, .env) exactly the
way run does and fails on any invalid value, so configuration errors surface
before a run is scheduled. The known-issues register, if configured, is
parsed as well.`,
		Args: cobra.NoArgs,
		RunE: validateCommand,
	}

	cmd.Flags().String("config", ".qaharness/config.yaml", "Path to config file")
	cmd.Flags().String("env-file", ".env", "Path to .env override file")

	return cmd
}

// validateCommand implements the validate command logic
func validateCommand(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.LoadWithEnv(configPath, envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.KnownIssuesPath != "" {
		reg, err := knownissues.Load(cfg.KnownIssuesPath)
		if err != nil {
			return fmt.Errorf("invalid known issues register: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Known issues register: %d entries\n", len(reg.Entries()))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid.\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Test timeout: %s\n", cfg.TestTimeout)
	fmt.Fprintf(cmd.OutOrStdout(), "  Max concurrency: %d\n", cfg.MaxConcurrency)
	fmt.Fprintf(cmd.OutOrStdout(), "  Scoring weights sum: %.2f\n", cfg.Weights.Sum())
	return nil
}
