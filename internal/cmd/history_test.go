package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackline/qaharness/internal/history"
	"github.com/stackline/qaharness/internal/models"
)

func TestHistoryCommandEmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"history",
		"--config", configPath,
		"--env-file", filepath.Join(dir, "absent.env"),
	})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No recorded runs.")
}

func TestHistoryCommandListsRuns(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)

	store, err := history.NewStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	require.NoError(t, store.RecordRun(time.Now(), 12, 2, []models.Issue{{
		Category:           models.CategoryFunctionality,
		AffectedComponents: []string{"billing"},
		Severity:           models.SeverityHigh,
		OccurrenceCount:    2,
	}}))
	require.NoError(t, store.Close())

	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{
		"history",
		"--config", configPath,
		"--env-file", filepath.Join(dir, "absent.env"),
		"--limit", "5",
	})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "12")
}

func TestHistoryCommandRequiresConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("history_db_path: \"\"\n"), 0644))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"history",
		"--config", configPath,
		"--env-file", filepath.Join(dir, "absent.env"),
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history is disabled")
}
