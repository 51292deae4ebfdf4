package schemas

import "time"

// FieldType classifies a discovered form control.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldFile     FieldType = "file"
)

// DiscoveredField is one form control extracted from portal markup.
// Instances are created fresh per discovery pass and never mutated afterwards.
type DiscoveredField struct {
	FieldID      string    `json:"field_id"`
	Label        string    `json:"label"`
	Type         FieldType `json:"type"`
	Required     bool      `json:"required"`
	Options      []string  `json:"options"`
	Section      string    `json:"section,omitempty"`
	Placeholder  string    `json:"placeholder,omitempty"`
	RawName      string    `json:"raw_name,omitempty"`
	SourcePortal string    `json:"source_portal,omitempty"`
}

// ActionType is the kind of fill instruction handed to a submission executor.
type ActionType string

const (
	ActionTypeType    ActionType = "type"
	ActionTypeSelect  ActionType = "select"
	ActionTypeCheck   ActionType = "check"
	ActionTypeUpload  ActionType = "upload"
	ActionTypePackage ActionType = "package"
)

// FillAction describes how to populate one discovered field with one value.
// FieldID always references a DiscoveredField from the same discovery pass.
type FillAction struct {
	ActionType ActionType `json:"action_type"`
	FieldID    string     `json:"field_id"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Notes      string     `json:"notes,omitempty"`
}

// DiscoveryResult bundles one discovery pass for API consumers.
type DiscoveryResult struct {
	Portal    string            `json:"portal"`
	Fields    []DiscoveredField `json:"fields"`
	PageURL   string            `json:"page_url"`
	Timestamp time.Time         `json:"timestamp"`
}

// Snapshot is the outcome of a headless browser render of a portal page.
// A failed render is reported with UsedBrowser=false, never as an error.
type Snapshot struct {
	URL         string `json:"url"`
	HTML        string `json:"html"`
	FinalURL    string `json:"final_url,omitempty"`
	UsedBrowser bool   `json:"used_browser"`
	Notes       string `json:"notes,omitempty"`
}
