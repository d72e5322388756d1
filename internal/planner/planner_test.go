package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackline/qaharness/internal/config"
	"github.com/stackline/qaharness/internal/models"
)

func issueWithSeverity(sev models.Severity, title string) models.Issue {
	return models.Issue{
		ID:                 "issue-" + title,
		Severity:           sev,
		Category:           models.CategoryFunctionality,
		Title:              title,
		Description:        "observed repeated failures",
		AffectedComponents: []string{"billing"},
		ExpectedBehavior:   "all cases pass",
		ActualBehavior:     "cases fail",
		EstimatedEffort:    "2-4 days",
	}
}

func planByName(t *testing.T, plans []models.ImprovementPlan, name string) models.ImprovementPlan {
	t.Helper()
	for _, p := range plans {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no plan named %q", name)
	return models.ImprovementPlan{}
}

func TestBuildPlansEmptyInput(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	plans := p.BuildPlans(nil)
	require.Len(t, plans, 4)

	assert.Equal(t, models.PlanImmediate, plans[0].Name)
	assert.Equal(t, models.PlanShortTerm, plans[1].Name)
	assert.Equal(t, models.PlanLongTerm, plans[2].Name)
	assert.Equal(t, models.PlanPreventive, plans[3].Name)

	for _, plan := range plans {
		assert.True(t, plan.IsEmpty(), "plan %s should be empty", plan.Name)
		assert.Zero(t, plan.Timeline.EstimatedHours)
	}
}

func TestBuildPlansPartitionsBySeverity(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	plans := p.BuildPlans([]models.Issue{
		issueWithSeverity(models.SeverityCritical, "critical outage"),
		issueWithSeverity(models.SeverityHigh, "high failure"),
		issueWithSeverity(models.SeverityMedium, "medium glitch"),
		issueWithSeverity(models.SeverityLow, "low nit"),
	})

	immediate := planByName(t, plans, models.PlanImmediate)
	short := planByName(t, plans, models.PlanShortTerm)
	long := planByName(t, plans, models.PlanLongTerm)

	// Two action items (investigate + fix) per issue.
	assert.Len(t, immediate.ActionItems, 2)
	assert.Len(t, short.ActionItems, 2)
	assert.Len(t, long.ActionItems, 4) // medium and low together

	assert.Contains(t, immediate.ActionItems[0].Title, "critical outage")
	assert.Contains(t, short.ActionItems[0].Title, "high failure")
	assert.Contains(t, long.ActionItems[0].Title, "medium glitch")
	assert.Contains(t, long.ActionItems[2].Title, "low nit")
}

func TestFixDependsOnInvestigation(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	plans := p.BuildPlans([]models.Issue{
		issueWithSeverity(models.SeverityCritical, "billing outage"),
	})
	immediate := planByName(t, plans, models.PlanImmediate)
	require.Len(t, immediate.ActionItems, 2)

	investigate := immediate.ActionItems[0]
	fix := immediate.ActionItems[1]

	assert.Contains(t, investigate.Title, "Investigate:")
	assert.Contains(t, fix.Title, "Fix:")
	require.Len(t, fix.Dependencies, 1)
	assert.Equal(t, investigate.ID, fix.Dependencies[0])
	assert.Equal(t, "issue-billing outage", investigate.IssueID)
	assert.Equal(t, "issue-billing outage", fix.IssueID)
	assert.Equal(t, models.PriorityHigh, fix.Priority)
	assert.Equal(t, "2-4 days", fix.EstimatedTime)
	assert.Contains(t, fix.AcceptanceCriteria, "All billing tests pass")
}

func TestUserActionsBySeverity(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	plans := p.BuildPlans([]models.Issue{
		issueWithSeverity(models.SeverityCritical, "crit"),
		issueWithSeverity(models.SeverityHigh, "high"),
		issueWithSeverity(models.SeverityMedium, "med"),
	})

	immediate := planByName(t, plans, models.PlanImmediate)
	short := planByName(t, plans, models.PlanShortTerm)
	long := planByName(t, plans, models.PlanLongTerm)

	// Critical: monitoring + stakeholder communication.
	require.Len(t, immediate.UserActions, 2)
	assert.Equal(t, models.UrgencyImmediate, immediate.UserActions[0].Urgency)

	// High: daily dashboard review only.
	require.Len(t, short.UserActions, 1)
	assert.Equal(t, models.UrgencySoon, short.UserActions[0].Urgency)

	// Medium: engineering work only, no human triage.
	assert.Empty(t, long.UserActions)
}

func TestSecurityIssuesGetEscalation(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	issue := issueWithSeverity(models.SeverityCritical, "token leak")
	issue.Category = models.CategorySecurity

	plans := p.BuildPlans([]models.Issue{issue})
	immediate := planByName(t, plans, models.PlanImmediate)

	require.Len(t, immediate.UserActions, 3)
	assert.Contains(t, immediate.UserActions[2].Title, "security owner")
	assert.Equal(t, "security-engineer", immediate.ActionItems[0].AssignedTo)
}

func TestRoleAssignment(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	perf := issueWithSeverity(models.SeverityMedium, "slow responses")
	perf.Category = models.CategoryPerformance

	plans := p.BuildPlans([]models.Issue{perf})
	long := planByName(t, plans, models.PlanLongTerm)
	assert.Equal(t, "platform-engineer", long.ActionItems[0].AssignedTo)
}

func TestTimelineSingleCriticalIssue(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	plans := p.BuildPlans([]models.Issue{
		issueWithSeverity(models.SeverityCritical, "outage"),
	})
	immediate := planByName(t, plans, models.PlanImmediate)

	// 16 effort hours, no buffer for critical, 6 working hours per day.
	assert.InDelta(t, 16, immediate.Timeline.EstimatedHours, 1e-9)
	assert.InDelta(t, 2.7, immediate.Timeline.EstimatedDays, 1e-9)
	assert.InDelta(t, 1.0, immediate.Timeline.BufferMultiplier, 1e-9)

	// Resources pad by the 20% contingency; testing is 30% of dev hours.
	assert.InDelta(t, 19.2, immediate.Resources.DeveloperHours, 1e-9)
	assert.InDelta(t, 5.8, immediate.Resources.TestingHours, 1e-9)
}

func TestTimelineBuffersLowerSeverities(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	plans := p.BuildPlans([]models.Issue{
		issueWithSeverity(models.SeverityMedium, "med"),
		issueWithSeverity(models.SeverityLow, "low"),
	})
	long := planByName(t, plans, models.PlanLongTerm)

	// medium 8h * 1.5 + low 4h * 2.0 = 20h; worst buffer reported.
	assert.InDelta(t, 20, long.Timeline.EstimatedHours, 1e-9)
	assert.InDelta(t, 2.0, long.Timeline.BufferMultiplier, 1e-9)
	assert.InDelta(t, 3.3, long.Timeline.EstimatedDays, 1e-9)
}

func TestImmediatePlanParallelizesCriticalFixes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxParallelCriticalFixes = 3
	p := NewPlanner(cfg)

	issues := []models.Issue{
		issueWithSeverity(models.SeverityCritical, "a"),
		issueWithSeverity(models.SeverityCritical, "b"),
		issueWithSeverity(models.SeverityCritical, "c"),
		issueWithSeverity(models.SeverityCritical, "d"),
	}
	plans := p.BuildPlans(issues)
	immediate := planByName(t, plans, models.PlanImmediate)

	// 4 * 16h = 64h across 3 parallel workers: 64 / 6 / 3 = 3.6 days.
	assert.InDelta(t, 64, immediate.Timeline.EstimatedHours, 1e-9)
	assert.InDelta(t, 3.6, immediate.Timeline.EstimatedDays, 1e-9)

	// Short-term never parallelizes even with multiple issues.
	highs := []models.Issue{
		issueWithSeverity(models.SeverityHigh, "x"),
		issueWithSeverity(models.SeverityHigh, "y"),
	}
	short := planByName(t, p.BuildPlans(highs), models.PlanShortTerm)
	// 2 * 12h * 1.2 = 28.8h / 6 = 4.8 days, single worker.
	assert.InDelta(t, 4.8, short.Timeline.EstimatedDays, 1e-9)
}

func TestPreventivePlanMatchesPatterns(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	timeoutIssue := issueWithSeverity(models.SeverityHigh, "checkout timeout storm")
	timeoutIssue.Description = "requests exceed the timeout under load"

	secIssue := issueWithSeverity(models.SeverityCritical, "auth token reuse")
	secIssue.Category = models.CategorySecurity

	plans := p.BuildPlans([]models.Issue{timeoutIssue, secIssue})
	preventive := planByName(t, plans, models.PlanPreventive)

	require.NotEmpty(t, preventive.ActionItems)
	titles := make([]string, 0, len(preventive.ActionItems))
	for _, item := range preventive.ActionItems {
		titles = append(titles, item.Title)
		assert.Empty(t, item.IssueID) // systemic, not tied to one issue
		assert.Equal(t, models.PriorityMedium, item.Priority)
	}
	assert.Contains(t, titles, "Harden error handling in failing components")
	assert.Contains(t, titles, "Schedule a security review of authentication paths")
}

func TestPreventivePlanEmptyWhenNoPatternsMatch(t *testing.T) {
	p := NewPlanner(config.DefaultConfig())

	issue := issueWithSeverity(models.SeverityLow, "copy typo on banner")
	issue.Description = "wording mismatch on the landing page"
	issue.ActualBehavior = "banner shows stale text"

	plans := p.BuildPlans([]models.Issue{issue})
	preventive := planByName(t, plans, models.PlanPreventive)
	assert.Empty(t, preventive.ActionItems)
	assert.Zero(t, preventive.Timeline.EstimatedHours)
}

func TestNewPlannerNilConfigUsesDefaults(t *testing.T) {
	p := NewPlanner(nil)
	plans := p.BuildPlans([]models.Issue{
		issueWithSeverity(models.SeverityCritical, "outage"),
	})
	assert.Len(t, plans, 4)
	assert.InDelta(t, 16, plans[0].Timeline.EstimatedHours, 1e-9)
}
