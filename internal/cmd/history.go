package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackline/qaharness/internal/config"
	"github.com/stackline/qaharness/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent harness runs from the history database",
		Args:  cobra.NoArgs,
		RunE:  historyCommand,
	}

	cmd.Flags().String("config", ".qaharness/config.yaml", "Path to config file")
	cmd.Flags().String("env-file", ".env", "Path to .env override file")
	cmd.Flags().Int("limit", 10, "Number of runs to show")

	return cmd
}

// historyCommand implements the history command logic
func historyCommand(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := config.LoadWithEnv(configPath, envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.HistoryDBPath == "" {
		return fmt.Errorf("history is disabled: no history_db_path configured")
	}

	store, err := history.NewStore(cfg.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-20s %8s %8s %8s\n", "RUN", "STARTED", "TESTS", "FAILED", "ISSUES")
	for _, run := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%-6d %-20s %8d %8d %8d\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.TotalTests,
			run.FailedTests,
			run.IssueCount,
		)
	}
	return nil
}
