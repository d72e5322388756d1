// Package history persists per-run issue occurrences in SQLite so the
// analyzer can score occurrence trends against prior runs instead of
// defaulting every issue to stable.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/stackline/qaharness/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// trendWindow is the number of recent runs compared against the same number
// of prior runs when classifying a signature's trend.
const trendWindow = 3

// RunSummary is one recorded harness run.
type RunSummary struct {
	ID          int64
	StartedAt   time.Time
	TotalTests  int
	FailedTests int
	IssueCount  int
}

// Store manages the SQLite run-history database. Writes are guarded by a
// file lock so concurrent harness invocations against the same database
// serialize cleanly.
type Store struct {
	db     *sql.DB
	dbPath string
	lock   *flock.Flock // nil for in-memory databases
}

// NewStore opens (creating if needed) the history database at dbPath.
// ":memory:" is supported for tests.
func NewStore(dbPath string) (*Store, error) {
	var lock *flock.Flock
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
		lock = flock.New(dbPath + ".lock")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// Every pooled connection to ":memory:" opens its own empty database, so
	// in-memory stores must pin the pool to a single connection or schema and
	// data vanish whenever the pool grows.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the remaining pragmas wait on locks instead of
	// failing during concurrent initialization.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath, lock: lock}, nil
}

// execWithRetry retries a statement with exponential backoff on
// "database is locked" errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun persists one harness run and the signatures of the issues it
// produced. Issues with empty signatures are skipped.
func (s *Store) RecordRun(startedAt time.Time, totalTests, failedTests int, issues []models.Issue) error {
	if s.lock != nil {
		if err := s.lock.Lock(); err != nil {
			return fmt.Errorf("acquire history lock: %w", err)
		}
		defer s.lock.Unlock()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"INSERT INTO runs (started_at, total_tests, failed_tests) VALUES (?, ?, ?)",
		startedAt.UTC(), totalTests, failedTests,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for _, issue := range issues {
		sig := issue.Signature()
		if sig == "" {
			continue
		}
		count := issue.OccurrenceCount
		if count < 1 {
			count = 1
		}
		if _, err := tx.Exec(
			"INSERT INTO issue_occurrences (run_id, signature, severity, occurrence_count) VALUES (?, ?, ?, ?)",
			runID, sig, string(issue.Severity), count,
		); err != nil {
			return fmt.Errorf("insert occurrence %s: %w", sig, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history transaction: %w", err)
	}
	return nil
}

// Trend classifies a signature by comparing its occurrences in the most
// recent runs against the equally sized window before that; with an odd
// number of runs the oldest one is dropped so neither window outweighs the
// other. Runs where the signature is absent count as zero. With fewer than
// two recorded runs there is nothing to compare, so the trend is stable.
func (s *Store) Trend(signature string) models.Trend {
	runIDs, err := s.recentRunIDs(2 * trendWindow)
	if err != nil || len(runIDs) < 2 {
		return models.TrendStable
	}

	split := len(runIDs) / 2
	recent, err := s.occurrenceSum(signature, runIDs[:split])
	if err != nil {
		return models.TrendStable
	}
	prior, err := s.occurrenceSum(signature, runIDs[split:2*split])
	if err != nil {
		return models.TrendStable
	}

	switch {
	case recent > prior:
		return models.TrendIncreasing
	case recent < prior:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// recentRunIDs returns up to limit run ids, newest first.
func (s *Store) recentRunIDs(limit int) ([]int64, error) {
	rows, err := s.db.Query("SELECT id FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// occurrenceSum totals a signature's occurrences across the given runs.
func (s *Store) occurrenceSum(signature string, runIDs []int64) (int, error) {
	if len(runIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(runIDs))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(
		"SELECT COALESCE(SUM(occurrence_count), 0) FROM issue_occurrences WHERE signature = ? AND run_id IN (%s)",
		placeholders,
	)

	args := make([]any, 0, len(runIDs)+1)
	args = append(args, signature)
	for _, id := range runIDs {
		args = append(args, id)
	}

	var sum int
	if err := s.db.QueryRow(query, args...).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// RecentRuns returns the newest runs with their issue counts, newest first.
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.started_at, r.total_tests, r.failed_tests, COUNT(o.id)
		FROM runs r
		LEFT JOIN issue_occurrences o ON o.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.TotalTests, &run.FailedTests, &run.IssueCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
