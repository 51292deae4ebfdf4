package portal

import (
	"strings"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// LeverAdapter handles jobs.lever.co application forms.
type LeverAdapter struct{}

func (a *LeverAdapter) Name() string { return "lever" }

func (a *LeverAdapter) Matches(url, html string) bool {
	if strings.Contains(strings.ToLower(url), "lever.co") {
		return true
	}
	htmlLower := strings.ToLower(html)
	return strings.Contains(htmlLower, "lever") && strings.Contains(htmlLower, "application")
}

func (a *LeverAdapter) DiscoverFields(url, html string) []schemas.DiscoveredField {
	return discoverFormFields(html, a.Name())
}

func (a *LeverAdapter) BuildFillActions(fields []schemas.DiscoveredField, answers map[string]string) []schemas.FillAction {
	actions := packageAction(answers)
	conf := confidenceTable{text: 0.7, selects: 0.6, checkbox: 0.6, upload: 0.5}
	return append(actions, synthesizeActions(fields, answers, conf, CanonicalKey)...)
}
