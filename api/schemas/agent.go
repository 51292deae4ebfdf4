package schemas

import "time"

// StepStatus is the audit status of one agent step.
type StepStatus string

const (
	StepThinking StepStatus = "thinking"
	StepActed    StepStatus = "acted"
	StepFailed   StepStatus = "failed"
)

// AgentStep is one entry in a run's audit trail. Steps are append-only;
// once recorded they are never mutated.
type AgentStep struct {
	Name    string         `json:"name"`
	Status  StepStatus     `json:"status"`
	Tool    string         `json:"tool,omitempty"`
	Details map[string]any `json:"details"`
}

// MissingFieldQuestion is a clarifying question generated when a required
// canonical field could not be resolved from profile, facts or user input.
type MissingFieldQuestion struct {
	Field     string   `json:"field"`
	Question  string   `json:"question"`
	InputType string   `json:"input_type"`
	Options   []string `json:"options,omitempty"`
	Required  bool     `json:"required"`
}

// RunMeta carries the out-of-band result of a run: what is still missing
// and what to ask the user next.
type RunMeta struct {
	MissingFields []string               `json:"missing_fields"`
	NextQuestions []MissingFieldQuestion `json:"next_questions"`
}

// AgentRunRequest is the payload accepted by the HTTP facade.
type AgentRunRequest struct {
	UserID         string            `json:"user_id" binding:"required"`
	JobDescription string            `json:"job_description" binding:"required"`
	Goal           string            `json:"goal,omitempty"`
	PageURL        string            `json:"page_url,omitempty"`
	PageHTML       string            `json:"page_html,omitempty"`
	Constraints    map[string]any    `json:"constraints,omitempty"`
	UserInputs     map[string]string `json:"user_inputs,omitempty"`
}

// AgentRunResponse mirrors the run contract: audit steps, proposed answers
// keyed by canonical key, and the follow-up questions if the run blocked.
type AgentRunResponse struct {
	UserID          string                 `json:"user_id"`
	JobDescription  string                 `json:"job_description"`
	Status          string                 `json:"status"`
	Steps           []AgentStep            `json:"steps"`
	ProposedAnswers map[string]string      `json:"proposed_answers"`
	MissingFields   []string               `json:"missing_fields"`
	NextQuestions   []MissingFieldQuestion `json:"next_questions"`
}

// Profile is the user profile record consumed by the agent. An empty skills
// list is treated as "bootstrap needed".
type Profile struct {
	UserID       string    `json:"user_id"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Location     string    `json:"location,omitempty"`
	Headline     string    `json:"headline,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Skills       []string  `json:"skills"`
	UpdatedAt    time.Time `json:"updated_at"`
}
