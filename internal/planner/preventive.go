package planner

import (
	"strings"

	"github.com/google/uuid"

	"github.com/stackline/qaharness/internal/models"
)

// preventiveRules maps textual patterns in issue narratives to the systemic
// improvement each one suggests. Scanned against every issue; each rule
// fires at most once per run.
var preventiveRules = []struct {
	keywords    []string
	title       string
	description string
	criteria    []string
}{
	{
		keywords:    []string{"timeout", "panic", "crash", "exception"},
		title:       "Harden error handling in failing components",
		description: "Repeated hard failures (timeouts, panics) indicate missing guards around external calls and unchecked inputs. Audit the failing paths and add recovery and retry boundaries.",
		criteria: []string{
			"All external calls in affected components carry explicit timeouts",
			"No unrecovered panics reachable from request handlers",
		},
	},
	{
		keywords:    []string{"failure rate", "flaky", "intermittent", "regression"},
		title:       "Strengthen automated regression coverage",
		description: "Elevated failure rates suggest gaps between unit coverage and production behavior. Add regression tests reproducing this run's failures before the fixes merge.",
		criteria: []string{
			"Each fixed issue has a regression test referencing its reproduction steps",
			"Suite failure rate trends downward over the next three runs",
		},
	},
	{
		keywords:    []string{"response time", "slow", "performance", "latency"},
		title:       "Add performance budgets to continuous monitoring",
		description: "Performance degradations were found by the harness rather than by alerts. Wire p95 response-time budgets into the monitoring stack so drift is caught between runs.",
		criteria: []string{
			"p95 budgets configured for every component flagged this run",
			"Alert fires before the critical response-time threshold is reached",
		},
	},
	{
		keywords:    []string{"security", "auth", "token", "permission"},
		title:       "Schedule a security review of authentication paths",
		description: "Security-adjacent failures warrant a review beyond the individual fixes: token lifecycle, permission checks, and session handling across tenants.",
		criteria: []string{
			"Review findings filed as tracked issues",
			"Tenant isolation verified for every authenticated endpoint",
		},
	},
	{
		keywords:    []string{"integration", "webhook", "partner", "external"},
		title:       "Add contract tests for external partner APIs",
		description: "Integration failures against partner services are cheaper to catch with recorded contract tests than with live end-to-end runs.",
		criteria: []string{
			"Contract fixtures recorded for each failing partner integration",
			"Contract suite runs in CI independently of partner availability",
		},
	},
}

// buildPreventivePlan scans every issue's narrative text and emits the
// systemic improvements the patterns suggest. Generated unconditionally;
// with no matching patterns (or no issues) the plan is empty, which is
// valid.
func (p *Planner) buildPreventivePlan(issues []models.Issue) models.ImprovementPlan {
	plan := models.ImprovementPlan{Name: models.PlanPreventive}
	if len(issues) == 0 {
		plan.Timeline = models.Timeline{BufferMultiplier: 1.0}
		return plan
	}

	var corpus strings.Builder
	for _, issue := range issues {
		corpus.WriteString(strings.ToLower(issue.Title))
		corpus.WriteByte(' ')
		corpus.WriteString(strings.ToLower(issue.Description))
		corpus.WriteByte(' ')
		corpus.WriteString(strings.ToLower(issue.ActualBehavior))
		corpus.WriteByte(' ')
	}
	text := corpus.String()

	for _, rule := range preventiveRules {
		if !containsAny(text, rule.keywords) {
			continue
		}
		plan.ActionItems = append(plan.ActionItems, models.ActionItem{
			ID:                 uuid.NewString(),
			Title:              rule.title,
			Description:        rule.description,
			Priority:           models.PriorityMedium,
			EstimatedTime:      "1 week",
			AssignedTo:         "platform-engineer",
			AcceptanceCriteria: rule.criteria,
		})
	}

	// Preventive work is sized flat per item rather than per issue.
	hours := float64(len(plan.ActionItems)) * 30
	perDay := p.cfg.DeveloperHoursPerDay
	if perDay <= 0 {
		perDay = 6
	}
	plan.Timeline = models.Timeline{
		EstimatedHours:   hours,
		EstimatedDays:    round1(hours / perDay),
		BufferMultiplier: 1.0,
	}
	plan.Resources = p.resources(hours)

	return plan
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
