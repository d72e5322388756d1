package runner

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/stackline/qaharness/internal/models"
)

// TestRunner executes a single test function and normalizes its return
// value, error, panic, or timeout into exactly one TestOutcome.
type TestRunner struct {
	timeout time.Duration
	logger  Logger
}

// NewTestRunner creates a TestRunner with the given per-test timeout.
// A timeout of 0 disables the timeout. The logger is optional and can be nil.
func NewTestRunner(timeout time.Duration, logger Logger) *TestRunner {
	return &TestRunner{timeout: timeout, logger: logger}
}

// invocation carries a test function's raw result across the goroutine
// boundary before normalization.
type invocation struct {
	value      any
	err        error
	panicked   bool
	panicValue any
	stack      string
}

// Run executes one test function and returns its normalized outcome.
// Duration is wall-clock from immediately before invocation to immediately
// after normalization, timeouts and panics included. Run never propagates a
// panic to the caller.
func (r *TestRunner) Run(name string, fn TestFunc, tc *Context) models.TestOutcome {
	start := time.Now()

	done := make(chan invocation, 1)
	go func() {
		var inv invocation
		defer func() {
			if rec := recover(); rec != nil {
				inv.panicked = true
				inv.panicValue = rec
				inv.stack = string(debug.Stack())
			}
			done <- inv
		}()
		var fixtures map[string]models.CompanyRecord
		if tc != nil {
			fixtures = tc.Fixtures
		}
		inv.value, inv.err = fn(tc, fixtures)
	}()

	var inv invocation
	if r.timeout > 0 {
		timer := time.NewTimer(r.timeout)
		defer timer.Stop()
		select {
		case inv = <-done:
		case <-timer.C:
			// The test goroutine keeps running; its eventual result is
			// discarded through the buffered channel.
			outcome := r.normalizeTimeout(name, start)
			r.logResult(outcome)
			return outcome
		}
	} else {
		inv = <-done
	}

	outcome := r.normalize(name, inv, start)
	r.logResult(outcome)
	return outcome
}

// normalize converts a raw invocation into a TestOutcome per the return
// contract documented on TestFunc.
func (r *TestRunner) normalize(name string, inv invocation, start time.Time) models.TestOutcome {
	outcome := models.TestOutcome{Name: name}

	switch {
	case inv.panicked:
		outcome.Status = models.StatusError
		outcome.ErrorText = fmt.Sprintf("panic: %v", inv.panicValue)
		outcome.Details = map[string]any{"stack_trace": inv.stack}

	case inv.err != nil:
		outcome.Status = models.StatusError
		outcome.ErrorText = inv.err.Error()

	default:
		outcome.Status, outcome.ErrorText, outcome.Details = normalizeValue(inv.value)
	}

	outcome.DurationSeconds = time.Since(start).Seconds()
	outcome.CompletedAt = time.Now()
	return outcome
}

// normalizeTimeout builds the timeout-specific error outcome.
func (r *TestRunner) normalizeTimeout(name string, start time.Time) models.TestOutcome {
	return models.TestOutcome{
		Name:            name,
		Status:          models.StatusError,
		ErrorText:       fmt.Sprintf("test timed out after %v", r.timeout),
		Details:         map[string]any{"timeout": r.timeout.String()},
		DurationSeconds: time.Since(start).Seconds(),
		CompletedAt:     time.Now(),
	}
}

// normalizeValue maps a test function's non-error return value onto a status,
// error text, and details map.
func normalizeValue(value any) (models.Status, string, map[string]any) {
	switch v := value.(type) {
	case bool:
		if v {
			return models.StatusPassed, "", nil
		}
		return models.StatusFailed, "test reported failure", nil

	case map[string]any:
		if success, ok := v["success"].(bool); ok && success {
			return models.StatusPassed, "", v
		}
		errText := "test reported failure"
		if msg, ok := v["error"].(string); ok && msg != "" {
			errText = msg
		}
		return models.StatusFailed, errText, v

	default:
		return models.StatusFailed, "test reported failure", map[string]any{"result": value}
	}
}

func (r *TestRunner) logResult(outcome models.TestOutcome) {
	if r.logger != nil {
		r.logger.LogTestResult(outcome)
	}
}
