package models

// Priority classifies engineering action items.
type Priority string

// Action item priority constants
const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Urgency classifies how quickly a human-facing action should happen.
type Urgency string

// User action urgency constants
const (
	UrgencyImmediate      Urgency = "IMMEDIATE"
	UrgencySoon           Urgency = "SOON"
	UrgencyWhenConvenient Urgency = "WHEN_CONVENIENT"
)

// ActionItem is an internal engineering task generated from an issue. One
// issue typically spawns an investigate item and a fix item that depends on
// it.
type ActionItem struct {
	ID                 string   `json:"id"`
	IssueID            string   `json:"issue_id,omitempty"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Priority           Priority `json:"priority"`
	EstimatedTime      string   `json:"estimated_time"`
	AssignedTo         string   `json:"assigned_to"` // role label, not a person
	Dependencies       []string `json:"dependencies,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
}

// UserAction is a human-facing task (monitor, communicate, escalate)
// generated alongside action items for issues needing human triage.
type UserAction struct {
	ID              string   `json:"id"`
	IssueID         string   `json:"issue_id,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Urgency         Urgency  `json:"urgency"`
	Instructions    []string `json:"instructions,omitempty"`
	ExpectedOutcome string   `json:"expected_outcome,omitempty"`
}

// Timeline is the computed schedule estimate for one improvement plan.
type Timeline struct {
	EstimatedHours   float64 `json:"estimated_hours"`
	EstimatedDays    float64 `json:"estimated_days"`
	BufferMultiplier float64 `json:"buffer_multiplier"`
}

// Resources describes the staffing estimate for one improvement plan.
// TestingHours is a fixed fraction of DeveloperHours.
type Resources struct {
	DeveloperHours float64 `json:"developer_hours"`
	TestingHours   float64 `json:"testing_hours"`
}

// Plan horizon names used by the planner.
const (
	PlanImmediate  = "immediate"
	PlanShortTerm  = "short-term"
	PlanLongTerm   = "long-term"
	PlanPreventive = "preventive"
)

// ImprovementPlan bundles the action items and user actions for one horizon
// (immediate, short-term, long-term, or preventive) together with timeline
// and resource estimates. An empty plan is a valid all-green outcome.
type ImprovementPlan struct {
	Name        string       `json:"name"`
	ActionItems []ActionItem `json:"action_items"`
	UserActions []UserAction `json:"user_actions"`
	Timeline    Timeline     `json:"timeline"`
	Resources   Resources    `json:"resources"`
}

// IsEmpty returns true when the plan carries no actions at all.
func (p *ImprovementPlan) IsEmpty() bool {
	return len(p.ActionItems) == 0 && len(p.UserActions) == 0
}
