package models

import "time"

// CompanyRecord is a fixture record describing one synthetic or real company
// used as test input. The records are owned by the external dataset and
// validation collaborators; the core only reads them.
type CompanyRecord struct {
	Name             string         `json:"name"`
	VATNumber        string         `json:"vat_number,omitempty"`
	LEICode          string         `json:"lei_code,omitempty"`
	CountryCode      string         `json:"country_code"` // ISO 3166-1 alpha-2
	Address          string         `json:"address,omitempty"`
	Industry         string         `json:"industry,omitempty"`
	SizeClass        string         `json:"size_class,omitempty"`
	ValidationStatus string         `json:"validation_status,omitempty"`
	LastValidatedAt  *time.Time     `json:"last_validated_at,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"` // nested validation results
}

// FirstRecord returns an arbitrary-but-deterministic record from a fixture
// map: the one with the lexicographically smallest key. Returns false when
// the map is empty.
func FirstRecord(fixtures map[string]CompanyRecord) (CompanyRecord, bool) {
	var (
		best  string
		found bool
	)
	for id := range fixtures {
		if !found || id < best {
			best = id
			found = true
		}
	}
	if !found {
		return CompanyRecord{}, false
	}
	return fixtures[best], true
}
