package planner

import (
	"math"

	"github.com/stackline/qaharness/internal/models"
)

// effortHours is the hand-tuned per-issue effort table, matched to the
// effort buckets the analyzer assigns per severity (investigation included).
var effortHours = map[models.Severity]float64{
	models.SeverityCritical: 16,
	models.SeverityHigh:     12,
	models.SeverityMedium:   8,
	models.SeverityLow:      4,
}

// bufferMultipliers pad the raw effort by severity. Critical work gets no
// buffer: it is scoped tightly and staffed first. Lower severities carry
// more schedule slack because they queue behind other work.
var bufferMultipliers = map[models.Severity]float64{
	models.SeverityCritical: 1.0,
	models.SeverityHigh:     1.2,
	models.SeverityMedium:   1.5,
	models.SeverityLow:      2.0,
}

// testingHoursFraction of developer hours is budgeted for QA verification.
const testingHoursFraction = 0.3

// timeline computes the schedule estimate for one plan. Hours are the
// buffered per-issue efforts summed; days divide by the configured working
// hours per day and the worker count (greater than one only for the
// immediate plan, capped by maxParallelCriticalFixes).
func (p *Planner) timeline(issues []models.Issue, workers int) models.Timeline {
	if len(issues) == 0 {
		return models.Timeline{BufferMultiplier: 1.0}
	}

	var hours, worst float64
	for _, issue := range issues {
		buffer := bufferMultipliers[issue.Severity]
		if buffer == 0 {
			buffer = bufferMultipliers[models.SeverityLow]
		}
		if buffer > worst {
			worst = buffer
		}
		hours += effortHours[issue.Severity] * buffer
	}

	perDay := p.cfg.DeveloperHoursPerDay
	if perDay <= 0 {
		perDay = 6
	}
	if workers < 1 {
		workers = 1
	}

	days := hours / perDay / float64(workers)

	return models.Timeline{
		EstimatedHours:   round1(hours),
		EstimatedDays:    round1(days),
		BufferMultiplier: worst,
	}
}

// resources derives the staffing estimate from the plan's buffered hours,
// padded by the configured contingency percentage.
func (p *Planner) resources(estimatedHours float64) models.Resources {
	dev := estimatedHours * (1 + p.cfg.BufferPercentage)
	return models.Resources{
		DeveloperHours: round1(dev),
		TestingHours:   round1(dev * testingHoursFraction),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
