// Package planner turns prioritized issues into time-boxed improvement
// plans: immediate (critical), short-term (high), long-term (medium and
// low), and an unconditional preventive bundle derived from textual
// patterns across all issues.
package planner

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/stackline/qaharness/internal/config"
	"github.com/stackline/qaharness/internal/models"
)

// Planner generates improvement plans from analyzed issues. It holds only
// immutable configuration; BuildPlans is a pure forward pass.
type Planner struct {
	cfg *config.Config
}

// NewPlanner creates a Planner.
func NewPlanner(cfg *config.Config) *Planner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Planner{cfg: cfg}
}

// BuildPlans partitions the sorted issue list by severity and emits the four
// plan bundles. An empty issue list yields four empty plans, the valid
// all-green outcome, not an error.
func (p *Planner) BuildPlans(issues []models.Issue) []models.ImprovementPlan {
	var critical, high, rest []models.Issue
	for _, issue := range issues {
		switch issue.Severity {
		case models.SeverityCritical:
			critical = append(critical, issue)
		case models.SeverityHigh:
			high = append(high, issue)
		default:
			rest = append(rest, issue)
		}
	}

	return []models.ImprovementPlan{
		p.buildPlan(models.PlanImmediate, critical, true),
		p.buildPlan(models.PlanShortTerm, high, false),
		p.buildPlan(models.PlanLongTerm, rest, false),
		p.buildPreventivePlan(issues),
	}
}

// buildPlan assembles one horizon bundle: an investigate-then-fix action
// item pair per issue, user actions where severity warrants, and the
// timeline/resource estimates. parallelize enables the critical-fix
// concurrency cap for the immediate plan.
func (p *Planner) buildPlan(name string, issues []models.Issue, parallelize bool) models.ImprovementPlan {
	plan := models.ImprovementPlan{Name: name}

	for _, issue := range issues {
		investigate, fix := p.actionPair(issue)
		plan.ActionItems = append(plan.ActionItems, investigate, fix)
		plan.UserActions = append(plan.UserActions, p.userActions(issue)...)
	}

	workers := 1
	if parallelize && len(issues) > 1 {
		workers = p.cfg.MaxParallelCriticalFixes
		if workers > len(issues) {
			workers = len(issues)
		}
		if workers < 1 {
			workers = 1
		}
	}
	plan.Timeline = p.timeline(issues, workers)
	plan.Resources = p.resources(plan.Timeline.EstimatedHours)

	return plan
}

// actionPair generates the investigate and fix items for one issue. The fix
// depends on the investigation.
func (p *Planner) actionPair(issue models.Issue) (models.ActionItem, models.ActionItem) {
	role := roleFor(issue)

	investigate := models.ActionItem{
		ID:            uuid.NewString(),
		IssueID:       issue.ID,
		Title:         fmt.Sprintf("Investigate: %s", issue.Title),
		Description:   fmt.Sprintf("Reproduce and isolate the root cause. %s", issue.Description),
		Priority:      priorityFor(issue.Severity),
		EstimatedTime: "4 hours",
		AssignedTo:    role,
		AcceptanceCriteria: []string{
			"Root cause identified and documented",
			"Reproduction steps confirmed",
			"Fix approach agreed with the component owner",
		},
	}

	fix := models.ActionItem{
		ID:            uuid.NewString(),
		IssueID:       issue.ID,
		Title:         fmt.Sprintf("Fix: %s", issue.Title),
		Description:   fmt.Sprintf("Implement and verify the fix. Expected behavior: %s", issue.ExpectedBehavior),
		Priority:      priorityFor(issue.Severity),
		EstimatedTime: issue.EstimatedEffort,
		AssignedTo:    role,
		Dependencies:  []string{investigate.ID},
		AcceptanceCriteria: append(
			componentCriteria(issue.AffectedComponents),
			"No regressions in adjacent suites",
		),
	}

	return investigate, fix
}

// userActions generates the human-facing tasks for one issue. Critical
// issues get monitoring plus communication, high issues get monitoring,
// security issues additionally get an escalation.
func (p *Planner) userActions(issue models.Issue) []models.UserAction {
	var actions []models.UserAction

	switch issue.Severity {
	case models.SeverityCritical:
		actions = append(actions,
			models.UserAction{
				ID:          uuid.NewString(),
				IssueID:     issue.ID,
				Title:       fmt.Sprintf("Monitor %s closely", componentLabel(issue.AffectedComponents)),
				Description: fmt.Sprintf("Watch error rates and alerts for %s until the fix lands.", componentLabel(issue.AffectedComponents)),
				Urgency:     models.UrgencyImmediate,
				Instructions: []string{
					"Open the component error-rate dashboard",
					"Set a temporary alert at half the current failure rate",
					"Check incident channels every 2 hours",
				},
				ExpectedOutcome: "Any regression is caught within hours, not days",
			},
			models.UserAction{
				ID:          uuid.NewString(),
				IssueID:     issue.ID,
				Title:       "Notify affected stakeholders",
				Description: fmt.Sprintf("Communicate the defect and workaround status. Impact: %s", issue.BusinessImpact),
				Urgency:     models.UrgencyImmediate,
				Instructions: []string{
					"Draft a short status note for account managers",
					"Include known workarounds and the fix ETA",
				},
				ExpectedOutcome: "Stakeholders are informed before they discover the issue themselves",
			},
		)
	case models.SeverityHigh:
		actions = append(actions, models.UserAction{
			ID:          uuid.NewString(),
			IssueID:     issue.ID,
			Title:       fmt.Sprintf("Review %s dashboards daily", componentLabel(issue.AffectedComponents)),
			Description: "Confirm the failure rate is not climbing while the fix is scheduled.",
			Urgency:     models.UrgencySoon,
			Instructions: []string{
				"Check the component dashboard once per day",
				"Escalate if the failure rate doubles",
			},
			ExpectedOutcome: "Escalation happens before the issue becomes critical",
		})
	}

	if issue.Category == models.CategorySecurity {
		actions = append(actions, models.UserAction{
			ID:          uuid.NewString(),
			IssueID:     issue.ID,
			Title:       "Escalate to the security owner",
			Description: "Security test failures require review independent of the engineering fix.",
			Urgency:     models.UrgencyImmediate,
			Instructions: []string{
				"Forward the issue details to the security owner",
				"Decide whether credential rotation or session invalidation is needed",
			},
			ExpectedOutcome: "Security exposure is assessed the same day",
		})
	}

	return actions
}

// priorityFor maps issue severity to action item priority.
func priorityFor(severity models.Severity) models.Priority {
	switch severity {
	case models.SeverityCritical, models.SeverityHigh:
		return models.PriorityHigh
	case models.SeverityMedium:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// roleFor picks the role label an issue's work is assigned to.
func roleFor(issue models.Issue) string {
	switch issue.Category {
	case models.CategorySecurity:
		return "security-engineer"
	case models.CategoryPerformance:
		return "platform-engineer"
	default:
		return "backend-engineer"
	}
}

// componentLabel renders the affected components for titles.
func componentLabel(components []string) string {
	if len(components) == 0 {
		return "the affected component"
	}
	if len(components) == 1 {
		return components[0]
	}
	return fmt.Sprintf("%s (+%d more)", components[0], len(components)-1)
}

// componentCriteria builds per-component acceptance criteria.
func componentCriteria(components []string) []string {
	out := make([]string, 0, len(components))
	for _, c := range components {
		out = append(out, fmt.Sprintf("All %s tests pass", c))
	}
	return out
}
