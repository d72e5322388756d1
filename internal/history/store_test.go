package history

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackline/qaharness/internal/models"
)

func memStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func billingIssue(count int) models.Issue {
	return models.Issue{
		Category:           models.CategoryFunctionality,
		AffectedComponents: []string{"billing"},
		Severity:           models.SeverityHigh,
		OccurrenceCount:    count,
	}
}

func TestTrendWithNoHistory(t *testing.T) {
	store := memStore(t)
	assert.Equal(t, models.TrendStable, store.Trend("FUNCTIONALITY:billing"))
}

func TestTrendSingleRunIsStable(t *testing.T) {
	store := memStore(t)
	require.NoError(t, store.RecordRun(time.Now(), 10, 2, []models.Issue{billingIssue(5)}))
	assert.Equal(t, models.TrendStable, store.Trend("FUNCTIONALITY:billing"))
}

func TestTrendIncreasing(t *testing.T) {
	store := memStore(t)
	require.NoError(t, store.RecordRun(time.Now(), 10, 1, []models.Issue{billingIssue(2)}))
	require.NoError(t, store.RecordRun(time.Now(), 10, 4, []models.Issue{billingIssue(8)}))

	assert.Equal(t, models.TrendIncreasing, store.Trend("FUNCTIONALITY:billing"))
}

func TestTrendDecreasing(t *testing.T) {
	store := memStore(t)
	require.NoError(t, store.RecordRun(time.Now(), 10, 4, []models.Issue{billingIssue(8)}))
	require.NoError(t, store.RecordRun(time.Now(), 10, 1, []models.Issue{billingIssue(2)}))

	assert.Equal(t, models.TrendDecreasing, store.Trend("FUNCTIONALITY:billing"))
}

func TestTrendAbsenceCountsAsZero(t *testing.T) {
	store := memStore(t)
	require.NoError(t, store.RecordRun(time.Now(), 10, 4, []models.Issue{billingIssue(8)}))
	require.NoError(t, store.RecordRun(time.Now(), 10, 0, nil)) // issue resolved

	assert.Equal(t, models.TrendDecreasing, store.Trend("FUNCTIONALITY:billing"))
}

func TestTrendUnknownSignature(t *testing.T) {
	store := memStore(t)
	require.NoError(t, store.RecordRun(time.Now(), 10, 1, []models.Issue{billingIssue(2)}))
	require.NoError(t, store.RecordRun(time.Now(), 10, 1, []models.Issue{billingIssue(2)}))

	assert.Equal(t, models.TrendStable, store.Trend("SECURITY:authentication"))
}

func TestTrendSteadySignatureAcrossOddRunCount(t *testing.T) {
	store := memStore(t)

	// A signature occurring at the same rate every run is stable; an odd run
	// count must not weigh the larger prior window against it.
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordRun(time.Now(), 10, 1, []models.Issue{billingIssue(3)}))
	}

	assert.Equal(t, models.TrendStable, store.Trend("FUNCTIONALITY:billing"))
}

func TestInMemoryStoreSharesOneDatabase(t *testing.T) {
	store := memStore(t)

	// Concurrent reads force the connection pool to grow; every connection
	// must see the same schema and data, not a fresh empty database.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Trend("FUNCTIONALITY:billing")
		}()
	}

	for i := 0; i < 4; i++ {
		require.NoError(t, store.RecordRun(time.Now(), 5, 1, []models.Issue{billingIssue(i + 1)}))
	}
	wg.Wait()

	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestRecordRunClampsOccurrenceCount(t *testing.T) {
	store := memStore(t)
	require.NoError(t, store.RecordRun(time.Now(), 5, 1, []models.Issue{billingIssue(0)}))

	runs, err := store.RecentRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].IssueCount)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := memStore(t)
	require.NoError(t, store.RecordRun(time.Now().Add(-time.Hour), 10, 3, []models.Issue{billingIssue(3)}))
	require.NoError(t, store.RecordRun(time.Now(), 12, 0, nil))

	runs, err := store.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Greater(t, runs[0].ID, runs[1].ID)
	assert.Equal(t, 12, runs[0].TotalTests)
	assert.Equal(t, 0, runs[0].IssueCount)
	assert.Equal(t, 3, runs[1].FailedTests)
	assert.Equal(t, 1, runs[1].IssueCount)
}

func TestNewStoreCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordRun(time.Now(), 1, 0, nil))

	runs, err := store.RecentRuns(5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
