package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/stackline/qaharness/internal/config"
	"github.com/stackline/qaharness/internal/models"
)

// PerformanceSummary is a pre-computed per-component performance rollup from
// the external metrics collector. The analyzer tolerates these being absent.
type PerformanceSummary struct {
	Component          string  `json:"component"`
	AvgResponseSeconds float64 `json:"avg_response_seconds"`
	P95ResponseSeconds float64 `json:"p95_response_seconds"`
	ErrorRate          float64 `json:"error_rate"` // fraction, 0.05 = 5%
	SampleCount        int     `json:"sample_count"`
}

// ErrorSummary is a pre-computed recurring error signature from the external
// log collector. The analyzer tolerates these being absent.
type ErrorSummary struct {
	Signature string `json:"signature"`
	Component string `json:"component"`
	Count     int    `json:"count"`
}

// Input bundles everything one analysis pass inspects. Only SuiteResults is
// required; empty summaries simply disable their detectors.
type Input struct {
	SuiteResults []models.SuiteResult
	Performance  []PerformanceSummary
	Errors       []ErrorSummary
}

// TrendSource supplies the occurrence trend for an issue signature from
// historical run data. A nil source means every trend defaults to Stable.
type TrendSource interface {
	Trend(signature string) models.Trend
}

// Acknowledger matches issues against an accepted known-issues list.
// A nil acknowledger annotates nothing.
type Acknowledger interface {
	Match(issue models.Issue) (reason string, ok bool)
}

// debugLogger is the minimal logging surface the analyzer needs for
// skipped-outcome notes.
type debugLogger interface {
	Debugf(format string, args ...any)
}

// Options carries the injectable collaborators for an Analyzer. Zero-value
// fields fall back to the reference defaults.
type Options struct {
	Classifier  ComponentClassifier
	Criticality map[string]Criticality
	Trends      TrendSource
	Known       Acknowledger
	Logger      debugLogger
}

// Analyzer is the issue-detection core. It holds only immutable
// configuration; every Analyze call builds a fresh session, so no state
// survives across calls.
type Analyzer struct {
	cfg         *config.Config
	classifier  ComponentClassifier
	criticality map[string]Criticality
	trends      TrendSource
	known       Acknowledger
	logger      debugLogger
}

// NewAnalyzer creates an Analyzer with the reference classifier and
// criticality table.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return NewAnalyzerWithOptions(cfg, Options{})
}

// NewAnalyzerWithOptions creates an Analyzer with substituted collaborators.
// Tests use this to swap the classifier or criticality table without module
// patching.
func NewAnalyzerWithOptions(cfg *config.Config, opts Options) *Analyzer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Classifier == nil {
		opts.Classifier = NewSubstringClassifier()
	}
	if opts.Criticality == nil {
		opts.Criticality = DefaultCriticality()
	}
	return &Analyzer{
		cfg:         cfg,
		classifier:  opts.Classifier,
		criticality: opts.Criticality,
		trends:      opts.Trends,
		known:       opts.Known,
		logger:      opts.Logger,
	}
}

// AnalyzeSuites analyzes suite results without performance or error
// summaries. It satisfies the orchestrator's IssueAnalyzer interface.
func (a *Analyzer) AnalyzeSuites(results []models.SuiteResult) []models.Issue {
	return a.Analyze(Input{SuiteResults: results})
}

// Analyze runs the full pass: detect, deduplicate, score, sort, annotate.
// The returned slice is freshly built; repeated calls on identical input
// yield structurally equal issues apart from generated ids.
func (a *Analyzer) Analyze(input Input) []models.Issue {
	s := &session{analyzer: a}

	s.detectFunctionality(input.SuiteResults)
	s.detectPerformance(input.Performance)
	s.detectErrorPatterns(input.Errors)
	s.detectIntegration(input.SuiteResults)
	s.detectSecurity(input.SuiteResults)

	issues := s.deduplicate()

	for i := range issues {
		issues[i].FixPriority = a.scoreIssue(&issues[i])
	}

	// Descending by priority; ties break on severity then title so output
	// order is deterministic.
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].FixPriority != issues[j].FixPriority {
			return issues[i].FixPriority > issues[j].FixPriority
		}
		if issues[i].Severity.Rank() != issues[j].Severity.Rank() {
			return issues[i].Severity.Rank() > issues[j].Severity.Rank()
		}
		return issues[i].Title < issues[j].Title
	})

	if a.known != nil {
		for i := range issues {
			if reason, ok := a.known.Match(issues[i]); ok {
				issues[i].Acknowledged = true
				issues[i].AcknowledgedReason = reason
			}
		}
	}

	return issues
}

// session holds the per-call accumulator, guaranteeing no cross-call state.
type session struct {
	analyzer  *Analyzer
	candidate []models.Issue
}

func (s *session) debugf(format string, args ...any) {
	if s.analyzer.logger != nil {
		s.analyzer.logger.Debugf(format, args...)
	}
}

// add records a candidate issue with a generated id.
func (s *session) add(issue models.Issue) {
	issue.ID = uuid.NewString()
	sort.Strings(issue.AffectedComponents)
	s.candidate = append(s.candidate, issue)
}

// componentStats tallies outcomes per component.
type componentStats struct {
	total    int
	failures int
	failed   []models.TestOutcome
}

// detectFunctionality groups failing outcomes by component and emits an
// issue when the component failure rate reaches the configured thresholds.
// Rates below the high threshold are noise, not issues.
func (s *session) detectFunctionality(results []models.SuiteResult) {
	stats := make(map[string]*componentStats)

	for _, suite := range results {
		for _, o := range suite.Outcomes {
			if o.Name == "" {
				s.debugf("skipping outcome with empty name in suite %s", suite.SuiteName)
				continue
			}
			component := s.analyzer.classifier.Classify(o.Name)
			st := stats[component]
			if st == nil {
				st = &componentStats{}
				stats[component] = st
			}
			st.total++
			if o.Status == models.StatusFailed || o.Status == models.StatusError {
				st.failures++
				st.failed = append(st.failed, o)
			}
		}
	}

	components := make([]string, 0, len(stats))
	for component := range stats {
		components = append(components, component)
	}
	sort.Strings(components)

	for _, component := range components {
		st := stats[component]
		if st.failures == 0 || st.total == 0 {
			continue
		}
		rate := float64(st.failures) / float64(st.total)

		var severity models.Severity
		switch {
		case rate >= s.analyzer.cfg.CriticalErrorRateThreshold:
			severity = models.SeverityCritical
		case rate >= s.analyzer.cfg.HighErrorRateThreshold:
			severity = models.SeverityHigh
		default:
			continue
		}

		steps := make([]string, 0, len(st.failed))
		var firstError string
		for _, o := range st.failed {
			steps = append(steps, fmt.Sprintf("Run test %s", o.Name))
			if firstError == "" && o.ErrorText != "" {
				firstError = o.ErrorText
			}
		}

		crit := s.analyzer.criticalityOf(component)
		s.add(models.Issue{
			Severity: severity,
			Category: models.CategoryFunctionality,
			Title:    fmt.Sprintf("Elevated failure rate in %s", component),
			Description: fmt.Sprintf("%d of %d %s tests failed (%.1f%% failure rate)",
				st.failures, st.total, component, rate*100),
			AffectedComponents:     []string{component},
			ReproductionSteps:      steps,
			ExpectedBehavior:       fmt.Sprintf("All %s tests pass", component),
			ActualBehavior:         firstError,
			OccurrenceCount:        st.failures,
			EstimatedAffectedUsers: estimatedUsersFor(crit),
			BusinessImpact:         businessImpactFor(crit, component),
			EstimatedEffort:        effortFor(severity),
		})
	}
}

// detectPerformance compares per-component response times and error rates
// against the configured thresholds. Severity is the worse of the two
// classifications; a critical breach of either dimension is Critical.
func (s *session) detectPerformance(summaries []PerformanceSummary) {
	perf := s.analyzer.cfg.Performance

	for _, sum := range summaries {
		if sum.Component == "" {
			s.debugf("skipping performance summary with empty component")
			continue
		}

		response := sum.AvgResponseSeconds
		if sum.P95ResponseSeconds > response {
			response = sum.P95ResponseSeconds
		}

		var respSeverity, rateSeverity models.Severity
		switch {
		case response >= perf.CriticalResponseTime:
			respSeverity = models.SeverityCritical
		case response >= perf.WarningResponseTime:
			respSeverity = models.SeverityMedium
		}
		switch {
		case sum.ErrorRate >= perf.CriticalErrorRate:
			rateSeverity = models.SeverityCritical
		case sum.ErrorRate >= perf.WarningErrorRate:
			rateSeverity = models.SeverityMedium
		}

		severity := respSeverity.Max(rateSeverity)
		if severity.Rank() == 0 {
			continue
		}

		crit := s.analyzer.criticalityOf(sum.Component)
		s.add(models.Issue{
			Severity: severity,
			Category: models.CategoryPerformance,
			Title:    fmt.Sprintf("Degraded performance in %s", sum.Component),
			Description: fmt.Sprintf("%s: avg %.2fs, p95 %.2fs, error rate %.1f%%",
				sum.Component, sum.AvgResponseSeconds, sum.P95ResponseSeconds, sum.ErrorRate*100),
			AffectedComponents: []string{sum.Component},
			ExpectedBehavior: fmt.Sprintf("Response time under %.1fs and error rate under %.0f%%",
				perf.WarningResponseTime, perf.WarningErrorRate*100),
			ActualBehavior:         fmt.Sprintf("p95 response %.2fs, error rate %.1f%%", sum.P95ResponseSeconds, sum.ErrorRate*100),
			OccurrenceCount:        maxInt(sum.SampleCount, 1),
			EstimatedAffectedUsers: estimatedUsersFor(crit),
			BusinessImpact:         businessImpactFor(crit, sum.Component),
			EstimatedEffort:        effortFor(severity),
		})
	}
}

// detectErrorPatterns emits an issue for any error signature recurring at or
// above the configured threshold. Severity scales with frequency.
func (s *session) detectErrorPatterns(summaries []ErrorSummary) {
	for _, sum := range summaries {
		if sum.Signature == "" {
			s.debugf("skipping error summary with empty signature")
			continue
		}
		if sum.Count < s.analyzer.cfg.FrequentErrorThreshold {
			continue
		}

		var severity models.Severity
		switch {
		case sum.Count >= 50:
			severity = models.SeverityCritical
		case sum.Count >= 20:
			severity = models.SeverityHigh
		default:
			severity = models.SeverityMedium
		}

		component := sum.Component
		if component == "" {
			component = s.analyzer.classifier.Classify(sum.Signature)
		}

		crit := s.analyzer.criticalityOf(component)
		s.add(models.Issue{
			Severity:               severity,
			Category:               models.CategoryFunctionality,
			Title:                  fmt.Sprintf("Recurring error in %s: %s", component, truncate(sum.Signature, 80)),
			Description:            fmt.Sprintf("Error signature %q occurred %d times in the window", sum.Signature, sum.Count),
			AffectedComponents:     []string{component},
			ExpectedBehavior:       "Error signature does not recur",
			ActualBehavior:         fmt.Sprintf("%d occurrences", sum.Count),
			OccurrenceCount:        sum.Count,
			EstimatedAffectedUsers: estimatedUsersFor(crit),
			BusinessImpact:         businessImpactFor(crit, component),
			EstimatedEffort:        effortFor(severity),
		})
	}
}

// detectIntegration groups failing integration-flavored outcomes by inferred
// partner and emits an issue when a partner has two or more failures.
func (s *session) detectIntegration(results []models.SuiteResult) {
	type partnerStats struct {
		failures int
		names    []string
	}
	partners := make(map[string]*partnerStats)

	for _, suite := range results {
		for _, o := range suite.Outcomes {
			if o.Name == "" || !isIntegrationTest(o.Name) {
				continue
			}
			if o.Status != models.StatusFailed && o.Status != models.StatusError {
				continue
			}
			partner := inferPartner(o.Name)
			st := partners[partner]
			if st == nil {
				st = &partnerStats{}
				partners[partner] = st
			}
			st.failures++
			st.names = append(st.names, o.Name)
		}
	}

	names := make([]string, 0, len(partners))
	for partner := range partners {
		names = append(names, partner)
	}
	sort.Strings(names)

	for _, partner := range names {
		st := partners[partner]
		if st.failures < 2 {
			continue
		}

		severity := models.SeverityMedium
		if st.failures >= 5 {
			severity = models.SeverityHigh
		}

		steps := make([]string, 0, len(st.names))
		for _, n := range st.names {
			steps = append(steps, fmt.Sprintf("Run test %s", n))
		}

		s.add(models.Issue{
			Severity:               severity,
			Category:               models.CategoryFunctionality,
			Title:                  fmt.Sprintf("Repeated integration failures with %s", partner),
			Description:            fmt.Sprintf("%d integration tests involving %s failed", st.failures, partner),
			AffectedComponents:     []string{"integration", partner},
			ReproductionSteps:      steps,
			ExpectedBehavior:       fmt.Sprintf("Integration calls to %s succeed", partner),
			ActualBehavior:         fmt.Sprintf("%d failures", st.failures),
			OccurrenceCount:        st.failures,
			EstimatedAffectedUsers: estimatedUsersFor(CriticalitySupporting),
			BusinessImpact:         fmt.Sprintf("moderate impact: workflows depending on %s are degraded", partner),
			EstimatedEffort:        effortFor(severity),
		})
	}
}

// detectSecurity emits a Critical issue for any failing outcome matching the
// security keywords. Security failures are never downgraded by frequency.
func (s *session) detectSecurity(results []models.SuiteResult) {
	type secStats struct {
		failures int
		names    []string
		firstErr string
	}
	byComponent := make(map[string]*secStats)

	for _, suite := range results {
		for _, o := range suite.Outcomes {
			if o.Name == "" || !isSecurityTest(o.Name) {
				continue
			}
			if o.Status != models.StatusFailed && o.Status != models.StatusError {
				continue
			}
			component := s.analyzer.classifier.Classify(o.Name)
			st := byComponent[component]
			if st == nil {
				st = &secStats{}
				byComponent[component] = st
			}
			st.failures++
			st.names = append(st.names, o.Name)
			if st.firstErr == "" {
				st.firstErr = o.ErrorText
			}
		}
	}

	components := make([]string, 0, len(byComponent))
	for component := range byComponent {
		components = append(components, component)
	}
	sort.Strings(components)

	for _, component := range components {
		st := byComponent[component]

		steps := make([]string, 0, len(st.names))
		for _, n := range st.names {
			steps = append(steps, fmt.Sprintf("Run test %s", n))
		}

		s.add(models.Issue{
			Severity: models.SeverityCritical,
			Category: models.CategorySecurity,
			Title:    fmt.Sprintf("Security test failures in %s", component),
			Description: fmt.Sprintf("%d security-sensitive tests failed in %s (%s)",
				st.failures, component, strings.Join(st.names, ", ")),
			AffectedComponents:     []string{component},
			ReproductionSteps:      steps,
			ExpectedBehavior:       "All security-sensitive tests pass",
			ActualBehavior:         st.firstErr,
			OccurrenceCount:        st.failures,
			EstimatedAffectedUsers: estimatedUsersFor(CriticalityCore),
			BusinessImpact:         "critical impact: potential unauthorized access or data exposure",
			EstimatedEffort:        effortFor(models.SeverityCritical),
		})
	}
}

// deduplicate merges candidate issues sharing a (category, components)
// signature: the first is kept, later descriptions are appended with a
// separator, severity upgrades to the maximum of the set, and occurrence
// counts are summed.
func (s *session) deduplicate() []models.Issue {
	var out []models.Issue
	index := make(map[string]int)

	for _, issue := range s.candidate {
		sig := issue.Signature()
		if i, seen := index[sig]; seen {
			kept := &out[i]
			kept.Severity = kept.Severity.Max(issue.Severity)
			if issue.Description != "" {
				kept.Description += " | " + issue.Description
			}
			kept.OccurrenceCount += issue.OccurrenceCount
			kept.ReproductionSteps = append(kept.ReproductionSteps, issue.ReproductionSteps...)
			if issue.EstimatedAffectedUsers > kept.EstimatedAffectedUsers {
				kept.EstimatedAffectedUsers = issue.EstimatedAffectedUsers
			}
			continue
		}
		index[sig] = len(out)
		out = append(out, issue)
	}

	return out
}

// criticalityOf looks up a component's criticality, defaulting to Supporting
// for unmapped components.
func (a *Analyzer) criticalityOf(component string) Criticality {
	if crit, ok := a.criticality[component]; ok {
		return crit
	}
	return CriticalitySupporting
}

// estimatedUsersFor maps criticality to a rough affected-user estimate used
// by the impact sub-score.
func estimatedUsersFor(crit Criticality) int {
	switch crit {
	case CriticalityCore:
		return 10000
	case CriticalityImportant:
		return 2500
	case CriticalitySupporting:
		return 500
	default:
		return 50
	}
}

// businessImpactFor produces the narrative impact text whose wording drives
// the impact multiplier.
func businessImpactFor(crit Criticality, component string) string {
	switch crit {
	case CriticalityCore:
		return fmt.Sprintf("critical business impact: %s failures block revenue or access", component)
	case CriticalityImportant:
		return fmt.Sprintf("significant impact: %s workflows are unreliable for affected tenants", component)
	case CriticalitySupporting:
		return fmt.Sprintf("moderate impact: %s degradation reduces operational visibility", component)
	default:
		return fmt.Sprintf("minor impact: %s issues affect demo surfaces only", component)
	}
}

// effortFor maps severity to the free-text effort bucket.
func effortFor(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "1-2 days"
	case models.SeverityHigh:
		return "2-4 days"
	case models.SeverityMedium:
		return "3-5 days"
	default:
		return "1 week"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
