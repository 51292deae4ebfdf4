package portal

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xkilldash9x/jobfill/api/schemas"
)

// WorkdayAdapter handles myworkdayjobs.com application flows. Workday markup
// is non-standard: custom dropdown widgets, ARIA-heavy labelling and no
// native <select> for many controls, so discovery runs three passes over the
// same document into one de-duplication set.
type WorkdayAdapter struct{}

// maxLabelWalkHops bounds the upward ancestor walk when resolving labels.
const maxLabelWalkHops = 6

// maxLabelTextLen rejects container text too long to be a label.
const maxLabelTextLen = 80

// customDropdownIDs are the automation ids Workday uses for its non-native
// select widgets.
var customDropdownIDs = map[string]bool{
	"dropdown":    true,
	"combobox":    true,
	"multiselect": true,
	"select":      true,
}

func (a *WorkdayAdapter) Name() string { return "workday" }

func (a *WorkdayAdapter) Matches(url, html string) bool {
	urlLower := strings.ToLower(url)
	if strings.Contains(urlLower, "myworkdayjobs.com") || strings.Contains(urlLower, "workday") {
		return true
	}
	htmlLower := strings.ToLower(html)
	return strings.Contains(htmlLower, "workday") && strings.Contains(htmlLower, "data-automation-id")
}

func (a *WorkdayAdapter) DiscoverFields(url, html string) []schemas.DiscoveredField {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	root := doc.Find("form").First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	d := &workdayDiscovery{doc: doc, seen: make(map[string]bool)}
	d.classicControls(root)
	d.customDropdowns(root)
	d.radioGroups(root)
	return d.fields
}

func (a *WorkdayAdapter) BuildFillActions(fields []schemas.DiscoveredField, answers map[string]string) []schemas.FillAction {
	conf := confidenceTable{text: 0.55, selects: 0.5, checkbox: 0.5, upload: 0.4}
	// The automation id often carries the only usable signal, so Workday
	// widens the classifier haystack with the field id.
	matchKey := func(f schemas.DiscoveredField) string {
		return keyForHaystack(fieldHaystack(f) + " " + searchable(f.FieldID))
	}
	return synthesizeActions(fields, answers, conf, matchKey)
}

// workdayDiscovery accumulates fields across the three passes.
type workdayDiscovery struct {
	doc    *goquery.Document
	seen   map[string]bool
	fields []schemas.DiscoveredField
}

func (d *workdayDiscovery) add(f schemas.DiscoveredField) {
	if f.FieldID == "" || d.seen[f.FieldID] {
		return
	}
	d.seen[f.FieldID] = true
	f.SourcePortal = "workday"
	d.fields = append(d.fields, f)
}

// classicControls is pass A: native input/textarea/select elements with the
// rich label-resolution chain.
func (d *workdayDiscovery) classicControls(root *goquery.Selection) {
	root.Find("input, textarea, select").Each(func(_ int, el *goquery.Selection) {
		tag := goquery.NodeName(el)
		fieldType := schemas.FieldType(strings.ToLower(el.AttrOr("type", "text")))
		switch tag {
		case "textarea":
			fieldType = schemas.FieldTextarea
		case "select":
			fieldType = schemas.FieldSelect
		}
		if strings.EqualFold(el.AttrOr("data-uxi-widget-type", ""), "selectinput") {
			fieldType = schemas.FieldSelect
		}

		fieldID := firstAttr(el, "id", "name", "data-automation-id")
		if fieldID == "" {
			return
		}

		label := d.labelForControl(root, el)
		if label == "" {
			label = fieldID
		}

		var options []string
		if tag == "select" {
			el.Find("option").Each(func(_ int, opt *goquery.Selection) {
				if text := collapseText(opt); text != "" {
					options = append(options, text)
				}
			})
		}

		d.add(schemas.DiscoveredField{
			FieldID:     fieldID,
			Label:       label,
			Type:        fieldType,
			Required:    isRequired(el, label),
			Options:     options,
			Placeholder: el.AttrOr("placeholder", ""),
			RawName:     el.AttrOr("name", ""),
		})
	})
}

// customDropdowns is pass B: widget containers carrying a dropdown-shaped
// automation id. Options are not present in the DOM until the widget opens,
// so the option list stays empty.
func (d *workdayDiscovery) customDropdowns(root *goquery.Selection) {
	root.Find("[data-automation-id]").Each(func(_ int, node *goquery.Selection) {
		if !customDropdownIDs[strings.ToLower(node.AttrOr("data-automation-id", ""))] {
			return
		}

		fieldID := firstAttr(node, "id", "data-automation-id")
		if fieldID == "" {
			return
		}

		label := d.resolveLabelledBy(node)
		if label == "" {
			label = strings.TrimSpace(node.AttrOr("aria-label", ""))
		}
		if label == "" {
			label = d.nearbyLabelText(node)
		}
		if label == "" {
			label = fieldID
		}

		d.add(schemas.DiscoveredField{
			FieldID:  fieldID,
			Label:    label,
			Type:     schemas.FieldSelect,
			Required: node.AttrOr("aria-required", "") == "true" || strings.HasSuffix(label, "*"),
			Options:  []string{},
		})
	})
}

// radioGroups is pass C: role="radiogroup" containers, collecting each inner
// <label> text as an option.
func (d *workdayDiscovery) radioGroups(root *goquery.Selection) {
	root.Find(`[role="radiogroup"]`).Each(func(_ int, group *goquery.Selection) {
		fieldID := firstAttr(group, "id", "data-automation-id")
		if fieldID == "" {
			fieldID = "radiogroup"
		}

		label := d.resolveLabelledBy(group)
		if label == "" {
			label = strings.TrimSpace(group.AttrOr("aria-label", ""))
		}
		if label == "" {
			if text := collapseText(group.Find("legend, h1, h2, h3, h4").First()); text != "" && len(text) <= maxLabelTextLen {
				label = text
			}
		}
		if label == "" {
			label = fieldID
		}

		var options []string
		seen := make(map[string]bool)
		group.Find("label").Each(func(_ int, opt *goquery.Selection) {
			text := collapseText(opt)
			if text != "" && !seen[text] {
				seen[text] = true
				options = append(options, text)
			}
		})

		d.add(schemas.DiscoveredField{
			FieldID:  fieldID,
			Label:    label,
			Type:     schemas.FieldRadio,
			Required: group.AttrOr("aria-required", "") == "true" || strings.HasSuffix(label, "*"),
			Options:  options,
		})
	})
}

// labelForControl resolves a control's label: explicit <label for>, then
// aria-labelledby, then aria-describedby, then attribute fallbacks, then an
// upward walk looking for a label-shaped container text.
func (d *workdayDiscovery) labelForControl(root, el *goquery.Selection) string {
	if id := el.AttrOr("id", ""); id != "" {
		if text := collapseText(root.Find(`label[for="` + id + `"]`).First()); text != "" {
			return text
		}
	}
	if text := d.resolveLabelledBy(el); text != "" {
		return text
	}
	if text := d.resolveDescribedBy(el); text != "" {
		return text
	}
	if text := firstAttr(el, "aria-label", "placeholder", "name", "id"); text != "" {
		return text
	}

	parent := el.Parent()
	for hop := 0; hop < maxLabelWalkHops && parent.Length() > 0; hop++ {
		cand := parent.Find(`[data-automation-id="label"], [data-automation-id="fieldLabel"]`).First()
		if text := collapseText(cand); text != "" {
			return text
		}
		if text := collapseText(parent); text != "" && len(text) <= maxLabelTextLen {
			return text
		}
		parent = parent.Parent()
	}
	return ""
}

// resolveLabelledBy joins the texts of the elements referenced by
// aria-labelledby.
func (d *workdayDiscovery) resolveLabelledBy(el *goquery.Selection) string {
	return d.resolveIDRefs(el.AttrOr("aria-labelledby", ""))
}

// resolveDescribedBy joins the texts referenced by aria-describedby; Workday
// often stores label or hint text there.
func (d *workdayDiscovery) resolveDescribedBy(el *goquery.Selection) string {
	return d.resolveIDRefs(el.AttrOr("aria-describedby", ""))
}

func (d *workdayDiscovery) resolveIDRefs(refs string) string {
	var parts []string
	for _, id := range strings.Fields(refs) {
		if text := collapseText(d.doc.Find(`[id="` + id + `"]`).First()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// nearbyLabelText walks up from a widget container looking for a short
// label-ish sibling text.
func (d *workdayDiscovery) nearbyLabelText(node *goquery.Selection) string {
	parent := node.Parent()
	for hop := 0; hop < 5 && parent.Length() > 0; hop++ {
		prev := parent.Find("label, span, div").First()
		if text := collapseText(prev); text != "" && len(text) <= maxLabelTextLen {
			return text
		}
		parent = parent.Parent()
	}
	return ""
}

func isRequired(el *goquery.Selection, label string) bool {
	if _, ok := el.Attr("required"); ok {
		return true
	}
	return el.AttrOr("aria-required", "") == "true" ||
		hasClassToken(el, "required") ||
		strings.HasSuffix(label, "*")
}

// collapseText returns the selection's text with whitespace runs collapsed.
func collapseText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(sel.Text()), " ")
}
