// Package agent implements the think-act-observe loop that drives a job
// application from raw job context to a reviewable application package.
package agent

import (
	"strconv"
	"time"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// Tool names the discrete capabilities the planner can choose between.
type Tool string

const (
	ToolFetchProfile            Tool = "fetch_profile"
	ToolAnalyzeJob              Tool = "analyze_job"
	ToolScoreFit                Tool = "score_fit"
	ToolSelectResume            Tool = "select_resume"
	ToolDecideApplyStrategy     Tool = "decide_apply_strategy"
	ToolMapFields               Tool = "map_fields"
	ToolDraftAnswers            Tool = "draft_answers"
	ToolDetectPortal            Tool = "detect_portal"
	ToolDiscoverFields          Tool = "discover_fields"
	ToolMapToCanonical          Tool = "map_to_canonical"
	ToolBuildFillActions        Tool = "build_fill_actions"
	ToolIdentifyMissingFields   Tool = "identify_missing_fields"
	ToolBuildApplicationPackage Tool = "build_application_package"
	ToolRequestUserInput        Tool = "request_user_input"
)

// Run statuses.
const (
	StatusPlanning  = "planning"
	StatusCompleted = "completed"
	StatusBlocked   = "blocked"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Apply decisions.
const (
	DecisionApply = "apply"
	DecisionSkip  = "skip"
)

// Constraints are the per-run knobs, parsed once from the caller-supplied
// map so the loop never touches untyped values.
type Constraints struct {
	MaxSteps         int
	MinFitScore      float64
	TargetResumeType string
	YearsExperience  string
}

// ParseConstraints resolves raw request constraints against configured
// defaults. Unknown keys are ignored.
func ParseConstraints(raw map[string]any, defaultMaxSteps int, defaultMinFit float64) Constraints {
	c := Constraints{
		MaxSteps:        defaultMaxSteps,
		MinFitScore:     defaultMinFit,
		YearsExperience: "5",
	}
	if v, ok := asInt(raw["max_steps"]); ok && v > 0 {
		c.MaxSteps = v
	}
	if v, ok := asFloat(raw["min_fit_score"]); ok {
		c.MinFitScore = v
	}
	if v, ok := raw["target_resume_type"].(string); ok {
		c.TargetResumeType = v
	}
	if v, ok := raw["years_experience"]; ok {
		switch y := v.(type) {
		case string:
			if y != "" {
				c.YearsExperience = y
			}
		case float64:
			c.YearsExperience = strconv.Itoa(int(y))
		case int:
			c.YearsExperience = strconv.Itoa(y)
		}
	}
	return c
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// JobAnalysis is the structured read of the job description.
type JobAnalysis struct {
	MustHaveSkills   []string `json:"must_have_skills"`
	NiceToHaveSkills []string `json:"nice_to_have_skills"`
	Keywords         []string `json:"keywords"`
	SeniorityGuess   string   `json:"seniority_guess"`
}

// FitReasons carries the hit counts behind a fit score.
type FitReasons struct {
	MustHaveHit   int `json:"must_have_hit"`
	MustHaveTotal int `json:"must_have_total"`
	NiceHaveHit   int `json:"nice_have_hit"`
	NiceHaveTotal int `json:"nice_have_total"`
}

// Context is the run's shared blackboard. Nil slices and maps mean "tool has
// not run yet"; tools always leave non-nil values behind, so emptiness after
// a run is distinguishable from absence.
type Context struct {
	JobDescription string
	PageURL        string
	PageHTML       string

	Portal            string
	Fields            map[string]string
	DiscoveredFields  []schemas.DiscoveredField
	CanonicalFieldMap map[string]string
	FillActions       []schemas.FillAction
	MissingFields     []string
	NextQuestions     []schemas.MissingFieldQuestion
	Package           map[string]any

	// UserFacts are repository-backed answers from earlier runs; UserInputs
	// are answers supplied with this request. Inputs shadow facts.
	UserFacts  map[string]string
	UserInputs map[string]string

	MissingFieldsChecked   bool
	ResumeSelectionSkipped bool
	RunID                  string
}

// Value resolves a canonical key against this run's inputs, falling back to
// previously confirmed facts.
func (c *Context) Value(key string) string {
	if v, ok := c.UserInputs[key]; ok {
		return v
	}
	return c.UserFacts[key]
}

// Observation records what a tool reported after acting.
type Observation struct {
	Step      int       `json:"step"`
	Tool      Tool      `json:"tool"`
	Result    string    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// ActionRecord records what a tool was invoked with.
type ActionRecord struct {
	Step   int            `json:"step"`
	Tool   Tool           `json:"tool"`
	Inputs map[string]any `json:"inputs"`
}

// State is the mutable run state threaded through the loop. It is owned by
// a single goroutine for the lifetime of a run.
type State struct {
	UserID      string
	Goal        string
	Constraints Constraints
	Profile     *schemas.Profile
	Context     *Context

	ProposedAnswers map[string]string
	LastError       string
	Observations    []Observation
	Actions         []ActionRecord
	Retries         map[Tool]int

	JobAnalysis      *JobAnalysis
	FitScore         *float64
	ApplyDecision    string
	SelectedResumeID string

	Step      int
	Completed bool
	Status    string
}

func newState(userID, goal string, constraints Constraints, profile *schemas.Profile, runCtx *Context) *State {
	if runCtx == nil {
		runCtx = &Context{}
	}
	if runCtx.UserFacts == nil {
		runCtx.UserFacts = make(map[string]string)
	}
	if runCtx.UserInputs == nil {
		runCtx.UserInputs = make(map[string]string)
	}
	return &State{
		UserID:          userID,
		Goal:            goal,
		Constraints:     constraints,
		Profile:         profile,
		Context:         runCtx,
		ProposedAnswers: make(map[string]string),
		Retries:         make(map[Tool]int),
		Status:          StatusPlanning,
	}
}
