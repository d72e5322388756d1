package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackline/qaharness/internal/analyzer"
	"github.com/stackline/qaharness/internal/config"
	"github.com/stackline/qaharness/internal/models"
	"github.com/stackline/qaharness/internal/planner"
	"github.com/stackline/qaharness/internal/runner"
)

// writeTestConfig writes a config file whose history and known-issues paths
// live under dir, so tests never touch the working directory.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	configPath := filepath.Join(dir, "config.yaml")
	content := "history_db_path: " + filepath.Join(dir, "history.db") + "\n" +
		"known_issues_path: " + filepath.Join(dir, "known-issues.md") + "\n" +
		"log_level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestRunCommandWritesReport(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)
	outputPath := filepath.Join(dir, "report.json")

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"run",
		"--config", configPath,
		"--env-file", filepath.Join(dir, "absent.env"),
		"--output", outputPath,
	})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, models.OverallPass, report.OverallStatus)
	totals := report.Totals()
	assert.Equal(t, 7, totals.Passed) // all demo suite checks pass
	assert.Zero(t, totals.Failed)
	assert.Empty(t, report.Issues)

	// History database was created alongside the run.
	_, err = os.Stat(filepath.Join(dir, "history.db"))
	assert.NoError(t, err)
}

func TestRunCommandRejectsInvalidTimeout(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--config", configPath, "--timeout", "bogus"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func passTest(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
	return true, nil
}

func failTest(errText string) runner.TestFunc {
	return func(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
		return map[string]any{"success": false, "error": errText}, nil
	}
}

// TestHarnessScenario wires the real runner, analyzer, and planner together
// on a concrete mixed-result run and checks the end-to-end contract.
func TestHarnessScenario(t *testing.T) {
	cfg := config.DefaultConfig()

	testRunner := runner.NewTestRunner(cfg.TestTimeout, nil)
	suiteRunner := runner.NewSuiteRunner(testRunner, nil, 1)
	orch := runner.NewOrchestrator(
		suiteRunner,
		nil,
		analyzer.NewAnalyzer(cfg),
		planner.NewPlanner(cfg),
		nil,
	)

	orch.Register("auth", "auth_login_flow", passTest)
	orch.Register("auth", "auth_session_refresh", passTest)
	orch.Register("billing", "billing_invoice_totals", passTest)
	orch.Register("billing", "billing_stripe_charge", failTest("Stripe timeout"))
	orch.Register("security", "security_auth_token_scope", failTest("auth_token scope escalation"))

	report := orch.RunAll(runner.NewContext(nil, nil, nil))
	require.NotNil(t, report)

	totals := report.Totals()
	assert.Equal(t, 3, totals.Passed)
	assert.Equal(t, 2, totals.Failed)

	// Billing failure rate 1/2 and the security failure both produce issues.
	require.GreaterOrEqual(t, len(report.Issues), 2)

	var security *models.Issue
	for i := range report.Issues {
		if report.Issues[i].Category == models.CategorySecurity {
			security = &report.Issues[i]
			break
		}
	}
	require.NotNil(t, security, "security failure must produce an issue")
	assert.Equal(t, models.SeverityCritical, security.Severity)

	// The security issue carries the top priority score of the run.
	assert.Equal(t, report.Issues[0].FixPriority, security.FixPriority)

	assert.Equal(t, models.OverallFail, report.OverallStatus)

	// Plans cover all four horizons, with the critical work in immediate.
	require.Len(t, report.Plans, 4)
	assert.Equal(t, models.PlanImmediate, report.Plans[0].Name)
	assert.NotEmpty(t, report.Plans[0].ActionItems)
	assert.Equal(t, models.PlanPreventive, report.Plans[3].Name)
}
