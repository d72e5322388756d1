package runner

import (
	"sync"
	"time"

	"github.com/stackline/qaharness/internal/models"
)

// SuiteRunner executes the registered tests of one category and aggregates
// them into a SuiteResult. Execution is sequential in registration order by
// default; MaxConcurrency > 1 enables bounded parallel execution that keeps
// outcome order and aggregate counts exact.
type SuiteRunner struct {
	testRunner     *TestRunner
	logger         Logger
	maxConcurrency int
}

// NewSuiteRunner constructs a SuiteRunner. maxConcurrency values below 1 are
// treated as 1 (sequential). The logger is optional and can be nil.
func NewSuiteRunner(testRunner *TestRunner, logger Logger, maxConcurrency int) *SuiteRunner {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &SuiteRunner{
		testRunner:     testRunner,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// RunSuite executes all tests for one category and returns the aggregated
// SuiteResult. The result's duration is the suite's wall-clock span, so it
// stays correct under parallel execution.
func (s *SuiteRunner) RunSuite(category string, tests []RegisteredTest, tc *Context) models.SuiteResult {
	if s.logger != nil {
		s.logger.LogSuiteStart(category, len(tests))
	}

	start := time.Now()

	var outcomes []models.TestOutcome
	if s.maxConcurrency > 1 && len(tests) > 1 {
		outcomes = s.runParallel(tests, tc)
	} else {
		outcomes = s.runSequential(tests, tc)
	}

	result := models.SuiteResult{
		SuiteName:            category,
		Outcomes:             outcomes,
		TotalDurationSeconds: time.Since(start).Seconds(),
	}

	if s.logger != nil {
		s.logger.LogSuiteComplete(result)
	}
	return result
}

// runSequential executes tests one at a time in list order.
func (s *SuiteRunner) runSequential(tests []RegisteredTest, tc *Context) []models.TestOutcome {
	outcomes := make([]models.TestOutcome, 0, len(tests))
	for _, test := range tests {
		outcomes = append(outcomes, s.testRunner.Run(test.Name, test.Fn, tc))
	}
	return outcomes
}

// runParallel executes tests with bounded concurrency. Each result is stored
// at its registration index, so outcome order matches list order and counts
// are aggregated post-hoc from the complete slice rather than from racy
// increments. One test's panic or timeout never cancels its siblings.
func (s *SuiteRunner) runParallel(tests []RegisteredTest, tc *Context) []models.TestOutcome {
	outcomes := make([]models.TestOutcome, len(tests))
	semaphore := make(chan struct{}, s.maxConcurrency)

	var wg sync.WaitGroup
	for i, test := range tests {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(idx int, test RegisteredTest) {
			defer wg.Done()
			defer func() { <-semaphore }()
			outcomes[idx] = s.testRunner.Run(test.Name, test.Fn, tc)
		}(i, test)
	}
	wg.Wait()

	return outcomes
}
