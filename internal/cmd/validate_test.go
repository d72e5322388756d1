package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommandWithDefaults(t *testing.T) {
	dir := t.TempDir()

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"validate",
		"--config", filepath.Join(dir, "absent.yaml"), // missing file means defaults
		"--env-file", filepath.Join(dir, "absent.env"),
	})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Configuration is valid.")
}

func TestValidateCommandRejectsBrokenWeights(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := "scoring_weights:\n  severity: 0.9\n  impact: 0.9\n  frequency: 0.2\n  trend: 0.15\n  component: 0.1\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"validate",
		"--config", configPath,
		"--env-file", filepath.Join(dir, "absent.env"),
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidateCommandReportsKnownIssues(t *testing.T) {
	dir := t.TempDir()

	registerPath := filepath.Join(dir, "known-issues.md")
	register := "## Stripe sandbox flakiness\n\n- component: billing\n- reason: sandbox limits\n"
	require.NoError(t, os.WriteFile(registerPath, []byte(register), 0644))

	configPath := filepath.Join(dir, "config.yaml")
	content := "known_issues_path: " + registerPath + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"validate",
		"--config", configPath,
		"--env-file", filepath.Join(dir, "absent.env"),
	})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "1 entries")
}
