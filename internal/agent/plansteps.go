package agent

import "github.com/xkilldash9x/jobfill/internal/portal"

// reasonForTool explains, in the audit trail, why the planner chose a tool.
func reasonForTool(tool Tool) string {
	switch tool {
	case ToolFetchProfile:
		return "Profile missing or lacks skills."
	case ToolAnalyzeJob:
		return "Need to parse job description for requirements."
	case ToolScoreFit:
		return "Need to compute fit against profile."
	case ToolSelectResume:
		return "Need to pick the best resume for this job."
	case ToolDecideApplyStrategy:
		return "Need decision to apply or skip."
	case ToolMapFields:
		return "Form fields not mapped yet."
	case ToolDraftAnswers:
		return "Need answers for mapped fields."
	case ToolDetectPortal:
		return "Detect which job portal is in use."
	case ToolDiscoverFields:
		return "Discover form fields on the portal."
	case ToolMapToCanonical:
		return "Map portal fields to canonical keys."
	case ToolBuildFillActions:
		return "Generate fill actions for the portal."
	case ToolIdentifyMissingFields:
		return "Ensure required fields are present."
	case ToolBuildApplicationPackage:
		return "Package application payload for submission."
	case ToolRequestUserInput:
		return "Need user input to continue."
	}
	return "Progress towards goal."
}

// successForTool states the success criterion recorded alongside the plan.
func successForTool(tool Tool) string {
	switch tool {
	case ToolFetchProfile:
		return "Profile loaded with skills."
	case ToolAnalyzeJob:
		return "Job description parsed with requirements."
	case ToolScoreFit:
		return "Fit score computed."
	case ToolSelectResume:
		return "Best-matching resume selected."
	case ToolDecideApplyStrategy:
		return "Decision made to apply or skip."
	case ToolMapFields:
		return "Fields mapped in context."
	case ToolDraftAnswers:
		return "Proposed answers generated."
	case ToolDetectPortal:
		return "Portal detected or defaulted."
	case ToolDiscoverFields:
		return "Form fields extracted."
	case ToolMapToCanonical:
		return "Fields mapped to canonical keys."
	case ToolBuildFillActions:
		return "Fill actions generated."
	case ToolIdentifyMissingFields:
		return "Missing fields identified or confirmed complete."
	case ToolBuildApplicationPackage:
		return "Application package prepared."
	case ToolRequestUserInput:
		return "User provides missing information."
	}
	return "Tool executed."
}

// inputsForTool records the salient tool inputs for the action log.
func inputsForTool(tool Tool, s *State) map[string]any {
	switch tool {
	case ToolFetchProfile:
		return map[string]any{"user_id": s.UserID}
	case ToolAnalyzeJob:
		return map[string]any{"job_description_preview": preview(s.Context.JobDescription, 80)}
	case ToolScoreFit:
		var skills []string
		if s.Profile != nil {
			skills = s.Profile.Skills
		}
		var must, nice []string
		if s.JobAnalysis != nil {
			must = s.JobAnalysis.MustHaveSkills
			nice = s.JobAnalysis.NiceToHaveSkills
		}
		return map[string]any{"profile_skills": skills, "must_have": must, "nice_to_have": nice}
	case ToolSelectResume:
		return map[string]any{"resumes_checked": true, "target_resume_type": s.Constraints.TargetResumeType}
	case ToolDecideApplyStrategy:
		return map[string]any{"fit_score": s.FitScore, "threshold": s.Constraints.MinFitScore}
	case ToolMapFields:
		return map[string]any{"job_description_preview": preview(s.Context.JobDescription, 50)}
	case ToolDraftAnswers:
		fields := make([]string, 0, len(s.Context.Fields))
		for k := range s.Context.Fields {
			fields = append(fields, k)
		}
		skillsCount := 0
		if s.Profile != nil {
			skillsCount = len(s.Profile.Skills)
		}
		return map[string]any{"fields": fields, "skills_count": skillsCount}
	case ToolDetectPortal:
		return map[string]any{"page_url": s.Context.PageURL}
	case ToolDiscoverFields:
		return map[string]any{"portal": s.Context.Portal, "page_url": s.Context.PageURL}
	case ToolMapToCanonical:
		return map[string]any{"discovered_fields": len(s.Context.DiscoveredFields)}
	case ToolBuildFillActions:
		return map[string]any{"fill_actions": len(s.Context.FillActions)}
	case ToolIdentifyMissingFields:
		return map[string]any{"required_fields": append([]string{}, portal.RequiredKeys...)}
	case ToolBuildApplicationPackage:
		return map[string]any{"has_answers": len(s.ProposedAnswers) > 0, "selected_resume_id": s.SelectedResumeID}
	case ToolRequestUserInput:
		return map[string]any{"prompt": "Please paste the job description or key requirements."}
	}
	return map[string]any{}
}

func preview(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}
