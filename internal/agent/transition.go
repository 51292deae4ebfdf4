package agent

// DecideNextTool is the planner's transition function: given a state
// snapshot it returns the next tool to run, or "" when the run is done.
// It is pure and deterministic; all side effects live in the tools.
//
// Precedence is fixed: profile, job analysis, fit score, resume selection,
// apply decision (skip terminates), then the form pipeline in order, the
// missing-field check, and finally packaging.
func DecideNextTool(s *State) Tool {
	if s.Profile == nil || len(s.Profile.Skills) == 0 {
		return ToolFetchProfile
	}
	if s.JobAnalysis == nil {
		return ToolAnalyzeJob
	}
	if s.FitScore == nil {
		return ToolScoreFit
	}
	if s.SelectedResumeID == "" && !s.Context.ResumeSelectionSkipped {
		return ToolSelectResume
	}
	if s.ApplyDecision == "" {
		return ToolDecideApplyStrategy
	}
	if s.ApplyDecision == DecisionSkip {
		return ""
	}
	if s.Context.Fields == nil {
		return ToolMapFields
	}
	if len(s.ProposedAnswers) == 0 {
		return ToolDraftAnswers
	}
	if s.Context.Portal == "" {
		return ToolDetectPortal
	}
	if s.Context.DiscoveredFields == nil {
		return ToolDiscoverFields
	}
	if s.Context.CanonicalFieldMap == nil {
		return ToolMapToCanonical
	}
	if s.Context.FillActions == nil {
		return ToolBuildFillActions
	}
	if !s.Context.MissingFieldsChecked {
		return ToolIdentifyMissingFields
	}
	if s.Context.Package == nil {
		return ToolBuildApplicationPackage
	}
	return ""
}
