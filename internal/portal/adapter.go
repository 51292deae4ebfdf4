// Package portal detects which job-application platform rendered a page,
// extracts structured field descriptors from its markup and synthesizes
// typed fill actions against a canonical field vocabulary.
package portal

import "github.com/xkilldash9x/jobfill/api/schemas"

// Adapter abstracts one concrete job-application platform. Adapters are
// stateless and safe to share across concurrent runs.
type Adapter interface {
	// Name identifies the portal ("greenhouse", "lever", "workday", "generic").
	Name() string
	// Matches reports whether this adapter recognizes the page.
	Matches(url, html string) bool
	// DiscoverFields extracts form field descriptors from raw markup.
	DiscoverFields(url, html string) []schemas.DiscoveredField
	// BuildFillActions turns discovered fields plus proposed answers into
	// typed, confidence-scored fill actions.
	BuildFillActions(fields []schemas.DiscoveredField, answers map[string]string) []schemas.FillAction
}

// adapters is the fixed priority order for detection. First match wins.
var adapters = []Adapter{
	&GreenhouseAdapter{},
	&LeverAdapter{},
	&WorkdayAdapter{},
}

// Pick returns the first adapter matching the page, falling back to the
// generic no-op adapter when no concrete portal is recognized.
func Pick(url, html string) Adapter {
	for _, a := range adapters {
		if a.Matches(url, html) {
			return a
		}
	}
	return &GenericAdapter{}
}
