// Package runner executes registered test functions against shared fixtures
// and normalizes every outcome into a models.TestOutcome. It is the one hard
// isolation boundary in the harness: a test that returns an error, panics, or
// times out becomes data, never a crash that aborts the suite.
package runner

import (
	"time"

	"github.com/stackline/qaharness/internal/models"
)

// Environment is the external collaborator owning setup and teardown of the
// system under test. The core calls it only at run start and end boundaries.
type Environment interface {
	Setup() error
	Teardown() error
}

// Context is the immutable bag of references handed to every test function.
// Environment and DataManager are opaque handles owned by external
// collaborators; the core never mutates them.
type Context struct {
	Environment any
	DataManager any
	Fixtures    map[string]models.CompanyRecord
	StartTime   time.Time
}

// NewContext builds an execution context for one run.
func NewContext(environment, dataManager any, fixtures map[string]models.CompanyRecord) *Context {
	return &Context{
		Environment: environment,
		DataManager: dataManager,
		Fixtures:    fixtures,
		StartTime:   time.Now(),
	}
}

// TestFunc is the signature every registered test function must satisfy.
//
// Return contract:
//   - return true, or a map containing "success": true  -> PASSED
//   - any other non-error return                        -> FAILED, with the
//     map's "error" value (if present) as error text and the return value
//     captured in the outcome details
//   - a non-nil error or a panic                        -> ERROR
type TestFunc func(tc *Context, fixtures map[string]models.CompanyRecord) (any, error)

// RegisteredTest pairs a test name with its function. Names feed the
// analyzer's component classification, so they should mention the functional
// area they exercise (e.g. "billing_invoice_totals").
type RegisteredTest struct {
	Name string
	Fn   TestFunc
}

// Logger defines the interface for logging run progress and results.
// All methods must be safe to call on a nil implementation holder; the
// runner checks for nil before every call.
type Logger interface {
	LogSuiteStart(suiteName string, testCount int)
	LogSuiteComplete(result models.SuiteResult)
	LogTestResult(outcome models.TestOutcome)
	LogSummary(report models.Report)
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
