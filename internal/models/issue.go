package models

// Severity classifies how serious an identified issue is.
type Severity string

// Issue severity constants, ordered from most to least serious.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// severityRank maps severities to a comparable order. Higher is worse.
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the comparable order of the severity. Unknown severities rank
// below Low.
func (s Severity) Rank() int {
	return severityRank[s]
}

// Max returns the more serious of the two severities.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// Category classifies the functional area an issue belongs to.
type Category string

// Issue category constants
const (
	CategoryFunctionality Category = "FUNCTIONALITY"
	CategoryPerformance   Category = "PERFORMANCE"
	CategorySecurity      Category = "SECURITY"
	CategoryUsability     Category = "USABILITY"
)

// Trend describes how an issue's occurrence count is moving across runs.
type Trend string

// Trend constants. Stable is the default when no history is available.
const (
	TrendIncreasing Trend = "INCREASING"
	TrendStable     Trend = "STABLE"
	TrendDecreasing Trend = "DECREASING"
)

// Issue describes a suspected defect derived from one or more related failing
// test outcomes. Issues are immutable after creation except FixPriority,
// which the analyzer sets exactly once after scoring.
type Issue struct {
	ID                 string   `json:"id"`
	Severity           Severity `json:"severity"`
	Category           Category `json:"category"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AffectedComponents []string `json:"affected_components"` // sorted, unique
	ReproductionSteps  []string `json:"reproduction_steps,omitempty"`
	ExpectedBehavior   string   `json:"expected_behavior,omitempty"`
	ActualBehavior     string   `json:"actual_behavior,omitempty"`

	// OccurrenceCount is how many failing outcomes or error events fed this
	// issue. EstimatedAffectedUsers and BusinessImpact drive the impact
	// sub-score.
	OccurrenceCount        int    `json:"occurrence_count"`
	EstimatedAffectedUsers int    `json:"estimated_affected_users"`
	BusinessImpact         string `json:"business_impact,omitempty"`

	// FixPriority is the weighted 0-100 score that ranks issues for
	// remediation order. Set once by the analyzer after deduplication.
	FixPriority     int    `json:"fix_priority"`
	EstimatedEffort string `json:"estimated_effort,omitempty"`

	// Acknowledged marks issues matching a known-issues entry. Annotation
	// only; severity and scoring are unaffected.
	Acknowledged       bool   `json:"acknowledged,omitempty"`
	AcknowledgedReason string `json:"acknowledged_reason,omitempty"`
}

// Signature returns the deduplication key for the issue: category plus the
// sorted affected components. Issues sharing a signature describe the same
// underlying defect.
func (i *Issue) Signature() string {
	sig := string(i.Category)
	for _, c := range i.AffectedComponents {
		sig += ":" + c
	}
	return sig
}
