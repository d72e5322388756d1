package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stackline/qaharness/internal/models"
	"github.com/stackline/qaharness/internal/runner"
)

var vatPattern = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z]{8,12}$`)

// demoFixtures returns the built-in company records the demo suites run
// against. Real deployments replace these with the tenant dataset loaded by
// the external data manager.
func demoFixtures() map[string]models.CompanyRecord {
	return map[string]models.CompanyRecord{
		"acme": {
			Name:             "Acme Industries BV",
			VATNumber:        "NL123456789B01",
			CountryCode:      "NL",
			Industry:         "manufacturing",
			SizeClass:        "mid-market",
			ValidationStatus: "validated",
		},
		"globex": {
			Name:        "Globex GmbH",
			VATNumber:   "DE129273398",
			LEICode:     "529900T8BM49AURSDO55",
			CountryCode: "DE",
			Industry:    "logistics",
			SizeClass:   "enterprise",
		},
		"initech": {
			Name:        "Initech Ltd",
			CountryCode: "GB",
			Industry:    "software",
			SizeClass:   "smb",
		},
	}
}

// registerDemoSuites registers the built-in smoke suites. Test names feed
// component classification, so each mentions its functional area.
func registerDemoSuites(orch *runner.Orchestrator) {
	orch.Register("auth", "auth_fixture_context_present", checkContextPresent)
	orch.Register("auth", "auth_token_fixture_isolation", checkFixtureIsolation)

	orch.Register("kyb", "kyb_vat_number_format", checkVATFormat)
	orch.Register("kyb", "kyb_lei_code_length", checkLEILength)
	orch.Register("kyb", "kyb_country_code_present", checkCountryCode)

	orch.Register("crm", "crm_company_names_unique", checkNamesUnique)

	orch.Register("billing", "billing_size_class_known", checkSizeClass)
}

// checkContextPresent verifies the runner hands every test a usable context.
func checkContextPresent(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
	if tc == nil || tc.StartTime.IsZero() {
		return nil, fmt.Errorf("execution context missing or uninitialized")
	}
	return true, nil
}

// checkFixtureIsolation verifies mutating the fixture view passed to one test
// cannot poison the shared record set for later tests.
func checkFixtureIsolation(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
	record, ok := models.FirstRecord(fixtures)
	if !ok {
		return map[string]any{"success": false, "error": "no fixtures loaded"}, nil
	}
	record.Name = "mutated"
	original, _ := models.FirstRecord(fixtures)
	if original.Name == "mutated" {
		return map[string]any{"success": false, "error": "fixture records are not copied on read"}, nil
	}
	return map[string]any{"success": true, "checked": len(fixtures)}, nil
}

// checkVATFormat validates every fixture VAT number against the EU format.
func checkVATFormat(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
	for id, record := range fixtures {
		if record.VATNumber == "" {
			continue
		}
		if !vatPattern.MatchString(record.VATNumber) {
			return map[string]any{
				"success": false,
				"error":   fmt.Sprintf("fixture %s has malformed VAT number %q", id, record.VATNumber),
			}, nil
		}
	}
	return true, nil
}

// checkLEILength validates LEI codes are the ISO 17442 fixed 20 characters.
func checkLEILength(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
	for id, record := range fixtures {
		if record.LEICode != "" && len(record.LEICode) != 20 {
			return map[string]any{
				"success": false,
				"error":   fmt.Sprintf("fixture %s has LEI code of length %d", id, len(record.LEICode)),
			}, nil
		}
	}
	return true, nil
}

// checkCountryCode requires a two-letter uppercase country on every record.
func checkCountryCode(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
	for id, record := range fixtures {
		cc := record.CountryCode
		if len(cc) != 2 || cc != strings.ToUpper(cc) {
			return nil, fmt.Errorf("fixture %s has invalid country code %q", id, cc)
		}
	}
	return true, nil
}

// checkNamesUnique rejects duplicate company names in the fixture set.
func checkNamesUnique(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
	seen := make(map[string]string, len(fixtures))
	for id, record := range fixtures {
		if prev, dup := seen[record.Name]; dup {
			return map[string]any{
				"success": false,
				"error":   fmt.Sprintf("fixtures %s and %s share company name %q", prev, id, record.Name),
			}, nil
		}
		seen[record.Name] = id
	}
	return true, nil
}

// checkSizeClass restricts size classes to the billing tiers.
func checkSizeClass(tc *runner.Context, fixtures map[string]models.CompanyRecord) (any, error) {
	valid := map[string]bool{"smb": true, "mid-market": true, "enterprise": true}
	for id, record := range fixtures {
		if record.SizeClass != "" && !valid[record.SizeClass] {
			return map[string]any{
				"success": false,
				"error":   fmt.Sprintf("fixture %s has unknown size class %q", id, record.SizeClass),
			}, nil
		}
	}
	return true, nil
}
