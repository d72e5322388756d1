// Package cmd wires the harness core into the qaharness CLI. Commands stay
// thin: configuration loading, collaborator construction, and report output
// live here; all detection and planning logic lives in the core packages.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for qaharness
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qaharness",
		Short: "Test orchestration and issue triage harness",
		Long: `qaharness runs the registered functional test suites in a fixed
category order, turns failures into deduplicated, priority-scored issues,
and emits improvement plans alongside the run report.

Issue occurrences persist across runs so recurring defects trend upward in
priority; acknowledged issues from the known-issues register are annotated
instead of re-triaged.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
