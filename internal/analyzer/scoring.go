package analyzer

import (
	"math"
	"strings"

	"github.com/stackline/qaharness/internal/models"
)

// severityScores is the fixed severity sub-score table. Not configurable per
// issue.
var severityScores = map[models.Severity]float64{
	models.SeverityCritical: 100,
	models.SeverityHigh:     75,
	models.SeverityMedium:   50,
	models.SeverityLow:      25,
}

// trendScores maps occurrence trends to sub-scores. Stable is the default
// when no history source is wired.
var trendScores = map[models.Trend]float64{
	models.TrendIncreasing: 100,
	models.TrendStable:     50,
	models.TrendDecreasing: 25,
}

// criticalityScores maps component criticality to sub-scores.
var criticalityScores = map[Criticality]float64{
	CriticalityCore:       100,
	CriticalityImportant:  75,
	CriticalitySupporting: 50,
	CriticalityOptional:   25,
}

// impactMultipliers scale the affected-user score by the wording of the
// issue's business-impact narrative. Checked in order; first match wins.
var impactMultipliers = []struct {
	keyword    string
	multiplier float64
}{
	{"critical", 1.0},
	{"severe", 1.0},
	{"significant", 0.9},
	{"major", 0.9},
	{"moderate", 0.75},
	{"minor", 0.5},
}

// scoreIssue computes the weighted 0-100 fix priority for one issue:
// severity 30%, business impact 25%, frequency 20%, trend 15%, component
// criticality 10% under the default weights. The ordering this produces is
// the load-bearing contract consumed by the planner's partitioning.
func (a *Analyzer) scoreIssue(issue *models.Issue) int {
	w := a.cfg.Weights

	severity := severityScores[issue.Severity]
	impact := a.impactScore(issue)
	frequency := frequencyScore(issue.OccurrenceCount)
	trend := a.trendScore(issue)
	component := a.componentScore(issue.AffectedComponents)

	weighted := severity*w.Severity +
		impact*w.Impact +
		frequency*w.Frequency +
		trend*w.Trend +
		component*w.Component

	return int(math.Round(weighted))
}

// impactScore is min(100, log10(max(1, affectedUsers)) * 20) scaled by the
// multiplier inferred from the business-impact wording.
func (a *Analyzer) impactScore(issue *models.Issue) float64 {
	users := float64(issue.EstimatedAffectedUsers)
	if users < 1 {
		users = 1
	}
	base := math.Min(100, math.Log10(users)*20)
	return base * impactMultiplier(issue.BusinessImpact)
}

// impactMultiplier infers the scaling factor from the narrative wording.
// Unrecognized wording gets the moderate multiplier.
func impactMultiplier(businessImpact string) float64 {
	lower := strings.ToLower(businessImpact)
	for _, m := range impactMultipliers {
		if strings.Contains(lower, m.keyword) {
			return m.multiplier
		}
	}
	return 0.75
}

// frequencyScore is min(100, log10(max(1, occurrences)) * 30).
func frequencyScore(occurrences int) float64 {
	n := float64(occurrences)
	if n < 1 {
		n = 1
	}
	return math.Min(100, math.Log10(n)*30)
}

// trendScore resolves the issue's occurrence trend from the history source,
// defaulting to Stable when no source is wired or the signature is new.
func (a *Analyzer) trendScore(issue *models.Issue) float64 {
	trend := models.TrendStable
	if a.trends != nil {
		trend = a.trends.Trend(issue.Signature())
	}
	score, ok := trendScores[trend]
	if !ok {
		return trendScores[models.TrendStable]
	}
	return score
}

// componentScore is the criticality sub-score of the most critical affected
// component.
func (a *Analyzer) componentScore(components []string) float64 {
	best := criticalityScores[CriticalitySupporting]
	for _, component := range components {
		if score := criticalityScores[a.criticalityOf(component)]; score > best {
			best = score
		}
	}
	return best
}
