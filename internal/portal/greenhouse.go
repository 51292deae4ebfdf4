package portal

import (
	"strings"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// GreenhouseAdapter handles boards.greenhouse.io application forms, which
// use conventional <form> markup.
type GreenhouseAdapter struct{}

func (a *GreenhouseAdapter) Name() string { return "greenhouse" }

func (a *GreenhouseAdapter) Matches(url, html string) bool {
	if strings.Contains(strings.ToLower(url), "greenhouse.io") {
		return true
	}
	htmlLower := strings.ToLower(html)
	return strings.Contains(htmlLower, "greenhouse") && strings.Contains(htmlLower, "application")
}

func (a *GreenhouseAdapter) DiscoverFields(url, html string) []schemas.DiscoveredField {
	return discoverFormFields(html, a.Name())
}

func (a *GreenhouseAdapter) BuildFillActions(fields []schemas.DiscoveredField, answers map[string]string) []schemas.FillAction {
	actions := packageAction(answers)
	conf := confidenceTable{text: 0.7, selects: 0.6, checkbox: 0.6, upload: 0.5}
	return append(actions, synthesizeActions(fields, answers, conf, CanonicalKey)...)
}
