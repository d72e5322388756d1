// Package models defines the data records exchanged between the harness
// stages: test outcomes, suite results, issues, improvement plans, and the
// final report. All records are plain data consumable by any serializer;
// formatting belongs to the external report assembler.
package models

import "time"

// Status represents the normalized result of one test function execution.
type Status string

// Test outcome status constants
const (
	StatusPassed  Status = "PASSED"  // Test completed and reported success
	StatusFailed  Status = "FAILED"  // Test completed and reported failure
	StatusSkipped Status = "SKIPPED" // Test was not executed
	StatusError   Status = "ERROR"   // Test raised, panicked, or timed out
)

// TestOutcome is the normalized result of a single test function execution.
// It is created by the test runner and is immutable once built.
type TestOutcome struct {
	Name            string         `json:"name"`
	Status          Status         `json:"status"`
	DurationSeconds float64        `json:"duration_seconds"`
	ErrorText       string         `json:"error_text,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
	CompletedAt     time.Time      `json:"completed_at"`
}

// SuiteCounts holds the per-status tallies for a suite.
type SuiteCounts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// Total returns the sum of all counts.
func (c SuiteCounts) Total() int {
	return c.Passed + c.Failed + c.Skipped + c.Errored
}

// SuiteResult aggregates the outcomes of one named suite.
// TotalDurationSeconds is the suite's wall-clock span, not the sum of
// individual outcome durations (the two diverge under parallel execution).
type SuiteResult struct {
	SuiteName            string        `json:"suite_name"`
	Outcomes             []TestOutcome `json:"outcomes"`
	TotalDurationSeconds float64       `json:"total_duration_seconds"`
}

// Counts recomputes the per-status tallies from the outcomes. Counts are
// always derived; they are never stored alongside the outcomes.
func (s *SuiteResult) Counts() SuiteCounts {
	var c SuiteCounts
	for _, o := range s.Outcomes {
		switch o.Status {
		case StatusPassed:
			c.Passed++
		case StatusFailed:
			c.Failed++
		case StatusSkipped:
			c.Skipped++
		case StatusError:
			c.Errored++
		}
	}
	return c
}

// HasFailures returns true if any outcome in the suite failed or errored.
func (s *SuiteResult) HasFailures() bool {
	c := s.Counts()
	return c.Failed > 0 || c.Errored > 0
}
