package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// fullState returns a state where every precondition is satisfied, so the
// planner reports the run done. Tests knock out one precondition at a time.
func fullState() *State {
	fit := 0.9
	s := newState("u1", "apply", Constraints{MaxSteps: 6, MinFitScore: 0.6}, &schemas.Profile{
		UserID: "u1",
		Skills: []string{"python"},
	}, nil)
	s.JobAnalysis = &JobAnalysis{}
	s.FitScore = &fit
	s.SelectedResumeID = "r1"
	s.ApplyDecision = DecisionApply
	s.Context.Fields = map[string]string{"cover_letter": "cover_letter"}
	s.ProposedAnswers["cover_letter"] = "Hello"
	s.Context.Portal = "generic"
	s.Context.DiscoveredFields = []schemas.DiscoveredField{}
	s.Context.CanonicalFieldMap = map[string]string{}
	s.Context.FillActions = []schemas.FillAction{}
	s.Context.MissingFieldsChecked = true
	s.Context.Package = map[string]any{}
	return s
}

func TestDecideNextToolPrecedence(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(s *State)
		expected Tool
	}{
		{"missing profile", func(s *State) { s.Profile = nil }, ToolFetchProfile},
		{"profile without skills", func(s *State) { s.Profile.Skills = nil }, ToolFetchProfile},
		{"missing job analysis", func(s *State) { s.JobAnalysis = nil }, ToolAnalyzeJob},
		{"missing fit score", func(s *State) { s.FitScore = nil }, ToolScoreFit},
		{"resume not selected", func(s *State) { s.SelectedResumeID = "" }, ToolSelectResume},
		{"resume selection skipped", func(s *State) {
			s.SelectedResumeID = ""
			s.Context.ResumeSelectionSkipped = true
			s.ApplyDecision = ""
		}, ToolDecideApplyStrategy},
		{"missing apply decision", func(s *State) { s.ApplyDecision = "" }, ToolDecideApplyStrategy},
		{"fields not mapped", func(s *State) { s.Context.Fields = nil }, ToolMapFields},
		{"no drafted answers", func(s *State) { s.ProposedAnswers = map[string]string{} }, ToolDraftAnswers},
		{"portal unknown", func(s *State) { s.Context.Portal = "" }, ToolDetectPortal},
		{"fields not discovered", func(s *State) { s.Context.DiscoveredFields = nil }, ToolDiscoverFields},
		{"canonical map absent", func(s *State) { s.Context.CanonicalFieldMap = nil }, ToolMapToCanonical},
		{"fill actions absent", func(s *State) { s.Context.FillActions = nil }, ToolBuildFillActions},
		{"missing fields unchecked", func(s *State) { s.Context.MissingFieldsChecked = false }, ToolIdentifyMissingFields},
		{"package absent", func(s *State) { s.Context.Package = nil }, ToolBuildApplicationPackage},
		{"everything satisfied", func(s *State) {}, Tool("")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := fullState()
			tc.mutate(s)
			assert.Equal(t, tc.expected, DecideNextTool(s))
		})
	}
}

func TestDecideNextToolSkipTerminates(t *testing.T) {
	s := fullState()
	s.ApplyDecision = DecisionSkip
	s.Context.Fields = nil
	assert.Equal(t, Tool(""), DecideNextTool(s))
}

func TestDecideNextToolDeterministic(t *testing.T) {
	s := fullState()
	s.Context.Portal = ""
	first := DecideNextTool(s)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DecideNextTool(s))
	}
}

func TestDecideNextToolEmptyDiscoveryStillAdvances(t *testing.T) {
	// A discovery pass that found nothing is not re-run: the empty non-nil
	// slice marks it done and the pipeline moves on.
	s := fullState()
	s.Context.DiscoveredFields = []schemas.DiscoveredField{}
	s.Context.CanonicalFieldMap = nil
	assert.Equal(t, ToolMapToCanonical, DecideNextTool(s))
}
