package runner

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stackline/qaharness/internal/models"
)

// IssueAnalyzer turns suite results into prioritized issues.
type IssueAnalyzer interface {
	AnalyzeSuites(results []models.SuiteResult) []models.Issue
}

// Planner turns prioritized issues into improvement plans.
type Planner interface {
	BuildPlans(issues []models.Issue) []models.ImprovementPlan
}

// categoryOrder is the fixed execution order for suite categories.
// Registration order is not trusted: identity and auth run first so that
// foundational failures surface before the business suites that depend on
// them, and the cross-cutting performance and security suites run last.
var categoryOrder = []string{
	"identity",
	"auth",
	"tenant",
	"billing",
	"crm",
	"kyb",
	"calendar",
	"knowledge",
	"messaging",
	"integration",
	"usability",
	"performance",
	"security",
}

// crossCuttingTail is how many trailing entries of categoryOrder are
// cross-cutting suites. Categories registered under names outside the fixed
// order run after the business suites but before this tail.
const crossCuttingTail = 2

// Orchestrator drives suite execution across all registered categories,
// collects suite results, and hands them to the analyzer and planner.
// Environment failure degrades to an emergency report; no failure escapes
// RunAll.
type Orchestrator struct {
	suiteRunner *SuiteRunner
	environment Environment
	analyzer    IssueAnalyzer
	planner     Planner
	logger      Logger

	suites map[string][]RegisteredTest
}

// NewOrchestrator creates an Orchestrator. The suite runner and analyzer are
// required; environment, planner, and logger are optional and can be nil.
func NewOrchestrator(suiteRunner *SuiteRunner, environment Environment, analyzer IssueAnalyzer, planner Planner, logger Logger) *Orchestrator {
	if suiteRunner == nil {
		panic("suite runner cannot be nil")
	}
	if analyzer == nil {
		panic("analyzer cannot be nil")
	}
	return &Orchestrator{
		suiteRunner: suiteRunner,
		environment: environment,
		analyzer:    analyzer,
		planner:     planner,
		logger:      logger,
		suites:      make(map[string][]RegisteredTest),
	}
}

// Register adds a test function to a category. Registration order within a
// category is preserved; category execution order is fixed by categoryOrder.
func (o *Orchestrator) Register(category, name string, fn TestFunc) {
	o.suites[category] = append(o.suites[category], RegisteredTest{Name: name, Fn: fn})
}

// RegisteredCategories returns the categories with at least one test, in
// execution order.
func (o *Orchestrator) RegisteredCategories() []string {
	var out []string
	for _, category := range o.executionOrder() {
		if len(o.suites[category]) > 0 {
			out = append(out, category)
		}
	}
	return out
}

// executionOrder returns the fixed category order with any unknown registered
// categories spliced in (sorted) before the cross-cutting tail.
func (o *Orchestrator) executionOrder() []string {
	known := make(map[string]bool, len(categoryOrder))
	for _, c := range categoryOrder {
		known[c] = true
	}

	var extra []string
	for category := range o.suites {
		if !known[category] {
			extra = append(extra, category)
		}
	}
	sort.Strings(extra)

	head := categoryOrder[:len(categoryOrder)-crossCuttingTail]
	tail := categoryOrder[len(categoryOrder)-crossCuttingTail:]

	order := make([]string, 0, len(categoryOrder)+len(extra))
	order = append(order, head...)
	order = append(order, extra...)
	order = append(order, tail...)
	return order
}

// RunAll executes every registered category in fixed order, analyzes the
// results, and builds improvement plans. Categories with no registered tests
// are skipped silently. If environment setup fails, RunAll returns an
// emergency report flagging the infrastructure failure at maximum severity
// instead of an error, so downstream reporting never crashes on total
// environment failure.
func (o *Orchestrator) RunAll(tc *Context) *models.Report {
	started := time.Now()

	if o.environment != nil {
		if err := o.environment.Setup(); err != nil {
			if o.logger != nil {
				o.logger.Errorf("environment setup failed: %v", err)
			}
			return o.emergencyReport(started, err)
		}
		defer func() {
			if err := o.environment.Teardown(); err != nil && o.logger != nil {
				o.logger.Warnf("environment teardown failed: %v", err)
			}
		}()
	}

	var results []models.SuiteResult
	for _, category := range o.executionOrder() {
		tests := o.suites[category]
		if len(tests) == 0 {
			continue
		}
		results = append(results, o.suiteRunner.RunSuite(category, tests, tc))
	}

	issues := o.analyzer.AnalyzeSuites(results)

	var plans []models.ImprovementPlan
	if o.planner != nil {
		plans = o.planner.BuildPlans(issues)
	}

	report := &models.Report{
		StartedAt:    started,
		FinishedAt:   time.Now(),
		SuiteResults: results,
		Issues:       issues,
		Plans:        plans,
	}
	report.OverallStatus = report.ComputeOverallStatus()

	if o.logger != nil {
		o.logger.LogSummary(*report)
	}
	return report
}

// emergencyReport builds the degraded-but-valid report returned when the
// environment collaborator fails before any tests run. It carries exactly
// one Critical infrastructure issue so automation relying on "always get a
// report" keeps working.
func (o *Orchestrator) emergencyReport(started time.Time, setupErr error) *models.Report {
	now := time.Now()

	outcome := models.TestOutcome{
		Name:        "environment_setup",
		Status:      models.StatusError,
		ErrorText:   setupErr.Error(),
		CompletedAt: now,
	}
	suite := models.SuiteResult{
		SuiteName:            "environment",
		Outcomes:             []models.TestOutcome{outcome},
		TotalDurationSeconds: now.Sub(started).Seconds(),
	}

	issue := models.Issue{
		ID:                 uuid.NewString(),
		Severity:           models.SeverityCritical,
		Category:           models.CategoryFunctionality,
		Title:              "Infrastructure failure: test environment setup failed",
		Description:        fmt.Sprintf("Environment setup failed before any tests ran: %v", setupErr),
		AffectedComponents: []string{"infrastructure"},
		ExpectedBehavior:   "Test environment boots and all suites execute",
		ActualBehavior:     fmt.Sprintf("Setup aborted: %v", setupErr),
		OccurrenceCount:    1,
		BusinessImpact:     "Complete loss of test coverage for this run; release risk is unassessed",
		FixPriority:        100,
		EstimatedEffort:    "unknown until investigated",
	}

	var plans []models.ImprovementPlan
	if o.planner != nil {
		plans = o.planner.BuildPlans([]models.Issue{issue})
	}

	report := &models.Report{
		StartedAt:             started,
		FinishedAt:            now,
		SuiteResults:          []models.SuiteResult{suite},
		Issues:                []models.Issue{issue},
		Plans:                 plans,
		InfrastructureFailure: true,
	}
	report.OverallStatus = report.ComputeOverallStatus()

	if o.logger != nil {
		o.logger.LogSummary(*report)
	}
	return report
}
