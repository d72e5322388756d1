// Package analyzer inspects suite results (plus optional performance and
// error-pattern summaries) and emits typed, deduplicated, priority-scored
// issues. Detection is heuristic triage, not a guaranteed classifier.
package analyzer

import "strings"

// ComponentClassifier maps a test name to the component it exercises.
// The default implementation is substring matching; a stricter tagging scheme
// can be substituted without touching detector logic.
type ComponentClassifier interface {
	Classify(testName string) string
}

// Criticality is the fixed business classification of a component.
type Criticality string

// Component criticality constants
const (
	CriticalityCore       Criticality = "CORE"
	CriticalityImportant  Criticality = "IMPORTANT"
	CriticalitySupporting Criticality = "SUPPORTING"
	CriticalityOptional   Criticality = "OPTIONAL"
)

// substringRule maps a test-name fragment to a component. Rules are checked
// in order; the first match wins.
type substringRule struct {
	fragment  string
	component string
}

// defaultRules is the reference substring table. Order matters: more
// specific fragments come before generic ones.
var defaultRules = []substringRule{
	{"oauth", "authentication"},
	{"auth", "authentication"},
	{"login", "authentication"},
	{"token", "authentication"},
	{"permission", "authentication"},
	{"stripe", "billing"},
	{"billing", "billing"},
	{"invoice", "billing"},
	{"payment", "billing"},
	{"subscription", "billing"},
	{"tenant", "tenant"},
	{"crm", "crm"},
	{"contact", "crm"},
	{"deal", "crm"},
	{"kyb", "kyb"},
	{"vat", "kyb"},
	{"lei", "kyb"},
	{"company_validation", "kyb"},
	{"calendar", "calendar"},
	{"booking", "calendar"},
	{"knowledge", "knowledge"},
	{"article", "knowledge"},
	{"whatsapp", "messaging"},
	{"email", "messaging"},
	{"sms", "messaging"},
	{"messaging", "messaging"},
	{"webhook", "integration"},
	{"integration", "integration"},
	{"monitor", "monitoring"},
	{"metric", "monitoring"},
	{"demo", "demo"},
	{"widget", "widget"},
}

// UnknownComponent is returned for test names no rule matches.
const UnknownComponent = "unknown"

// SubstringClassifier is the default ComponentClassifier: case-insensitive
// substring matching against an ordered rule table.
type SubstringClassifier struct {
	rules []substringRule
}

// NewSubstringClassifier returns a classifier using the reference rule table.
func NewSubstringClassifier() *SubstringClassifier {
	return &SubstringClassifier{rules: defaultRules}
}

// Classify returns the component for a test name, or UnknownComponent when
// no rule matches.
func (c *SubstringClassifier) Classify(testName string) string {
	lower := strings.ToLower(testName)
	for _, rule := range c.rules {
		if strings.Contains(lower, rule.fragment) {
			return rule.component
		}
	}
	return UnknownComponent
}

// DefaultCriticality returns the reference component criticality map:
// auth/billing/tenant are core revenue-and-access paths, the business
// verticals are important, channels and observability are supporting, and
// demo surfaces are optional.
func DefaultCriticality() map[string]Criticality {
	return map[string]Criticality{
		"authentication": CriticalityCore,
		"billing":        CriticalityCore,
		"tenant":         CriticalityCore,
		"crm":            CriticalityImportant,
		"kyb":            CriticalityImportant,
		"calendar":       CriticalityImportant,
		"knowledge":      CriticalityImportant,
		"messaging":      CriticalitySupporting,
		"monitoring":     CriticalitySupporting,
		"integration":    CriticalitySupporting,
		"demo":           CriticalityOptional,
		"widget":         CriticalityOptional,
	}
}

// securityKeywords mark test names whose failures are always Critical.
var securityKeywords = []string{"auth", "security", "permission", "token", "oauth"}

// isSecurityTest reports whether a test name matches the security keywords.
func isSecurityTest(testName string) bool {
	lower := strings.ToLower(testName)
	for _, kw := range securityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// integrationKeywords mark test names the integration detector considers.
var integrationKeywords = []string{"integration", "webhook", "api"}

// isIntegrationTest reports whether a test name suggests an external
// integration.
func isIntegrationTest(testName string) bool {
	lower := strings.ToLower(testName)
	for _, kw := range integrationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// knownPartners maps test-name fragments to integration partner names.
var knownPartners = []substringRule{
	{"stripe", "stripe"},
	{"hubspot", "hubspot"},
	{"salesforce", "salesforce"},
	{"google", "google"},
	{"slack", "slack"},
	{"twilio", "twilio"},
	{"whatsapp", "whatsapp"},
	{"vies", "vies"},
	{"gleif", "gleif"},
}

// inferPartner guesses the integration partner from a test name. Falls back
// to "internal-api" when no known partner fragment matches.
func inferPartner(testName string) string {
	lower := strings.ToLower(testName)
	for _, rule := range knownPartners {
		if strings.Contains(lower, rule.fragment) {
			return rule.component
		}
	}
	return "internal-api"
}
