package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xkilldash9x/jobfill/api/schemas"
)

// discoverFormFields handles conventional <form> markup shared by the
// Greenhouse and Lever board layouts.
func discoverFormFields(html, portalName string) []schemas.DiscoveredField {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	root := doc.Find("form").First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	var fields []schemas.DiscoveredField
	root.Find("input, textarea, select").Each(func(_ int, el *goquery.Selection) {
		tag := goquery.NodeName(el)
		fieldType := schemas.FieldType(strings.ToLower(el.AttrOr("type", "text")))
		switch tag {
		case "textarea":
			fieldType = schemas.FieldTextarea
		case "select":
			fieldType = schemas.FieldSelect
		}

		fieldID := firstAttr(el, "id", "name", "data-qa", "data-qa-id")
		if fieldID == "" {
			return
		}

		label := ""
		if id, ok := el.Attr("id"); ok && id != "" {
			label = strings.TrimSpace(root.Find(`label[for="` + id + `"]`).First().Text())
		}
		if label == "" {
			label = firstAttr(el, "aria-label", "placeholder", "name")
		}
		if label == "" {
			label = fieldID
		}

		var options []string
		if tag == "select" {
			el.Find("option").Each(func(_ int, opt *goquery.Selection) {
				if text := strings.TrimSpace(opt.Text()); text != "" {
					options = append(options, text)
				}
			})
		}

		_, required := el.Attr("required")
		if !required {
			required = hasClassToken(el, "required")
		}

		fields = append(fields, schemas.DiscoveredField{
			FieldID:      fieldID,
			Label:        label,
			Type:         fieldType,
			Required:     required,
			Options:      options,
			Placeholder:  el.AttrOr("placeholder", ""),
			RawName:      el.AttrOr("name", ""),
			SourcePortal: portalName,
		})
	})

	return fields
}

// packageAction forwards a prepared application package to the submission
// pipeline alongside regular per-field actions.
func packageAction(answers map[string]string) []schemas.FillAction {
	pkg, ok := answers["application_package"]
	if !ok {
		return nil
	}
	return []schemas.FillAction{{
		ActionType: schemas.ActionTypePackage,
		FieldID:    "application_package",
		Value:      pkg,
		Confidence: 0.9,
		Notes:      "Prepared application package for submission pipeline.",
	}}
}

func firstAttr(el *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v, ok := el.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func hasClassToken(el *goquery.Selection, token string) bool {
	for _, class := range strings.Fields(el.AttrOr("class", "")) {
		if class == token {
			return true
		}
	}
	return false
}
