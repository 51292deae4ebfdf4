package portal

import "github.com/xkilldash9x/jobfill/api/schemas"

// GenericAdapter is the degradation target for unrecognized portals: it
// matches everything, discovers nothing, and only echoes answers keyed by
// exact field id.
type GenericAdapter struct{}

func (a *GenericAdapter) Name() string { return "generic" }

func (a *GenericAdapter) Matches(url, html string) bool { return true }

func (a *GenericAdapter) DiscoverFields(url, html string) []schemas.DiscoveredField {
	return nil
}

func (a *GenericAdapter) BuildFillActions(fields []schemas.DiscoveredField, answers map[string]string) []schemas.FillAction {
	var actions []schemas.FillAction
	for _, field := range fields {
		value, ok := answers[field.FieldID]
		if !ok {
			continue
		}
		actions = append(actions, schemas.FillAction{
			ActionType: schemas.ActionTypeType,
			FieldID:    field.FieldID,
			Value:      value,
			Confidence: 0.5,
			Notes:      "Generic fallback mapping.",
		})
	}
	return actions
}
