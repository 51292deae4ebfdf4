package portal

import (
	"fmt"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// confidenceTable fixes the confidence assigned per action kind. Confidence
// is a static lookup, not computed from the match.
type confidenceTable struct {
	text     float64
	selects  float64
	checkbox float64
	upload   float64
}

var (
	yesSet = map[string]bool{"yes": true, "y": true, "true": true, "1": true}
	noSet  = map[string]bool{"no": true, "n": true, "false": true, "0": true}
)

// synthesizeActions emits one fill action for every discovered field whose
// canonical key has a proposed answer. matchKey lets adapters widen the
// haystack (Workday includes the automation id).
func synthesizeActions(
	fields []schemas.DiscoveredField,
	answers map[string]string,
	conf confidenceTable,
	matchKey func(schemas.DiscoveredField) string,
) []schemas.FillAction {
	var actions []schemas.FillAction
	for _, field := range fields {
		key := matchKey(field)
		if key == "" {
			continue
		}
		answer, ok := answers[key]
		if !ok {
			continue
		}

		action := schemas.FillAction{
			ActionType: schemas.ActionTypeType,
			FieldID:    field.FieldID,
			Value:      answer,
			Confidence: conf.text,
			Notes:      fmt.Sprintf("Matched via %s keyword.", key),
		}

		switch field.Type {
		case schemas.FieldSelect, schemas.FieldRadio:
			action.ActionType = schemas.ActionTypeSelect
			if len(field.Options) > 0 {
				action.Value = pickOption(answer, field.Options)
			}
			action.Confidence = conf.selects
		case schemas.FieldCheckbox:
			action.ActionType = schemas.ActionTypeCheck
			if yesSet[normalize(answer)] {
				action.Value = "true"
			} else {
				action.Value = "false"
			}
			action.Confidence = conf.checkbox
		case schemas.FieldFile:
			action.ActionType = schemas.ActionTypeUpload
			action.Confidence = conf.upload
		}

		actions = append(actions, action)
	}
	return actions
}

// pickOption resolves an answer against a select's option list: exact
// case-insensitive match first, then boolean polarity, then the raw value.
func pickOption(value string, options []string) string {
	val := normalize(value)
	for _, option := range options {
		if normalize(option) == val {
			return option
		}
	}
	if yesSet[val] || noSet[val] {
		target := yesSet
		if noSet[val] {
			target = noSet
		}
		for _, option := range options {
			if target[normalize(option)] {
				return option
			}
		}
	}
	return value
}
