package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/api/schemas"
	"github.com/xkilldash9x/jobfill/internal/browser"
	"github.com/xkilldash9x/jobfill/internal/portal"
	"github.com/xkilldash9x/jobfill/internal/store"
)

// toolFunc mutates the run state and returns a human-readable note for the
// audit trail. A returned error marks the step failed and counts a retry.
type toolFunc func(ctx context.Context, s *State) (string, error)

func (o *Orchestrator) toolTable() map[Tool]toolFunc {
	return map[Tool]toolFunc{
		ToolFetchProfile:            o.toolFetchProfile,
		ToolAnalyzeJob:              o.toolAnalyzeJob,
		ToolScoreFit:                o.toolScoreFit,
		ToolSelectResume:            o.toolSelectResume,
		ToolDecideApplyStrategy:     o.toolDecideApplyStrategy,
		ToolMapFields:               o.toolMapFields,
		ToolDraftAnswers:            o.toolDraftAnswers,
		ToolDetectPortal:            o.toolDetectPortal,
		ToolDiscoverFields:          o.toolDiscoverFields,
		ToolMapToCanonical:          o.toolMapToCanonical,
		ToolBuildFillActions:        o.toolBuildFillActions,
		ToolIdentifyMissingFields:   o.toolIdentifyMissingFields,
		ToolBuildApplicationPackage: o.toolBuildApplicationPackage,
		ToolRequestUserInput:        o.toolRequestUserInput,
	}
}

func (o *Orchestrator) toolFetchProfile(ctx context.Context, s *State) (string, error) {
	prof, note, err := o.profiles.Fetch(ctx, s.UserID, s.Context.JobDescription, s.Profile)
	if err != nil {
		return "", err
	}
	s.Profile = prof
	return note, nil
}

func (o *Orchestrator) toolAnalyzeJob(_ context.Context, s *State) (string, error) {
	s.JobAnalysis = AnalyzeJob(s.Context.JobDescription)
	return "Analyzed job description.", nil
}

func (o *Orchestrator) toolScoreFit(_ context.Context, s *State) (string, error) {
	if s.JobAnalysis == nil {
		return "", fmt.Errorf("job analysis not available")
	}
	var skills []string
	if s.Profile != nil {
		skills = s.Profile.Skills
	}
	score, reasons := ScoreFit(skills, s.JobAnalysis)
	s.FitScore = &score
	o.log.Debug("fit scored",
		zap.Float64("score", score),
		zap.Int("must_hits", reasons.MustHaveHit),
		zap.Int("nice_hits", reasons.NiceHaveHit))
	return fmt.Sprintf("Computed fit score %.2f.", score), nil
}

func (o *Orchestrator) toolSelectResume(ctx context.Context, s *State) (string, error) {
	if o.repo == nil {
		s.Context.ResumeSelectionSkipped = true
		return "Repository not available; skipping resume selection.", nil
	}
	resumes, err := o.repo.ListResumes(ctx, s.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to list resumes: %w", err)
	}
	if len(resumes) == 0 {
		s.Context.ResumeSelectionSkipped = true
		return "No resumes found; skipping selection.", nil
	}

	var best *store.Resume
	bestScore := -1.0
	for i := range resumes {
		score := scoreResume(&resumes[i], s.JobAnalysis, s.Constraints.TargetResumeType)
		if score > bestScore {
			best = &resumes[i]
			bestScore = score
		}
	}
	s.SelectedResumeID = best.ID
	return fmt.Sprintf("Selected resume %s", best.ID), nil
}

// scoreResume ranks one resume against the job analysis: must-have skill
// hits count double, nice-to-have hits single, and a matching resume type
// earns a 1.5 bonus.
func scoreResume(r *store.Resume, analysis *JobAnalysis, targetType string) float64 {
	skills := make(map[string]bool, len(r.Parsed.Skills))
	for _, s := range r.Parsed.Skills {
		skills[strings.ToLower(s)] = true
	}
	projects := strings.ToLower(strings.Join(r.Parsed.Projects, " "))

	var must, nice []string
	if analysis != nil {
		must = analysis.MustHaveSkills
		nice = analysis.NiceToHaveSkills
	}
	hits := func(terms []string) int {
		n := 0
		for _, t := range terms {
			t = strings.ToLower(t)
			if skills[t] || (projects != "" && strings.Contains(projects, t)) {
				n++
			}
		}
		return n
	}

	score := float64(2*hits(must) + hits(nice))
	if targetType != "" && r.ResumeType != "" && strings.EqualFold(r.ResumeType, targetType) {
		score += 1.5
	}
	return score
}

func (o *Orchestrator) toolDecideApplyStrategy(_ context.Context, s *State) (string, error) {
	threshold := s.Constraints.MinFitScore
	score := 0.0
	if s.FitScore != nil {
		score = *s.FitScore
	}
	decision := DecisionSkip
	if score >= threshold {
		decision = DecisionApply
	}
	s.ApplyDecision = decision
	if decision == DecisionSkip {
		s.Status = StatusSkipped
		s.Completed = true
	}
	return fmt.Sprintf("Decision: %s (threshold %v).", decision, threshold), nil
}

func (o *Orchestrator) toolMapFields(_ context.Context, s *State) (string, error) {
	s.Context.Fields = map[string]string{
		portal.KeyCoverLetter:     portal.KeyCoverLetter,
		portal.KeyKeySkills:       portal.KeyKeySkills,
		portal.KeyYearsExperience: portal.KeyYearsExperience,
	}
	return fmt.Sprintf("Mapped fields for job description length %d.", len(s.Context.JobDescription)), nil
}

func (o *Orchestrator) toolDraftAnswers(_ context.Context, s *State) (string, error) {
	var skills []string
	if s.Profile != nil {
		skills = s.Profile.Skills
	}
	if len(skills) == 0 {
		skills = []string{"relevant technologies"}
	}
	joined := strings.Join(skills, ", ")

	s.ProposedAnswers[s.Context.Fields[portal.KeyCoverLetter]] = fmt.Sprintf(
		"Excited to apply. Background in %s aligns with the role.", joined)
	s.ProposedAnswers[s.Context.Fields[portal.KeyKeySkills]] = joined
	s.ProposedAnswers[s.Context.Fields[portal.KeyYearsExperience]] = s.Constraints.YearsExperience
	return "Drafted answers using profile skills.", nil
}

func (o *Orchestrator) toolDetectPortal(_ context.Context, s *State) (string, error) {
	adapter := portal.Pick(s.Context.PageURL, s.Context.PageHTML)
	s.Context.Portal = adapter.Name()
	return fmt.Sprintf("Detected portal: %s", adapter.Name()), nil
}

func (o *Orchestrator) toolDiscoverFields(ctx context.Context, s *State) (string, error) {
	url := s.Context.PageURL
	html := s.Context.PageHTML
	adapter := portal.Pick(url, html)

	fields := adapter.DiscoverFields(url, html)

	shouldRetry := adapter.Name() == "workday" ||
		(len(fields) < 3 && browser.LooksLikeShell(html))

	var browserNote string
	if shouldRetry && o.fetcher != nil && o.cfg.BrowserFallback {
		snap := o.fetcher.Fetch(ctx, url)
		browserNote = snap.Notes
		if snap.UsedBrowser && snap.HTML != "" {
			finalURL := snap.FinalURL
			if finalURL == "" {
				finalURL = url
			}
			// Re-pick on rendered markup; the final page may carry portal
			// signals the static shell did not.
			rendered := portal.Pick(finalURL, snap.HTML)
			renderedFields := rendered.DiscoverFields(finalURL, snap.HTML)
			if len(renderedFields) >= len(fields) {
				fields = renderedFields
				adapter = rendered
				s.Context.PageHTML = snap.HTML
				s.Context.PageURL = finalURL
				s.Context.Portal = rendered.Name()
			}
		}
	}

	if fields == nil {
		fields = []schemas.DiscoveredField{}
	}
	s.Context.DiscoveredFields = fields

	note := fmt.Sprintf("Discovered %d fields using %s.", len(fields), adapter.Name())
	if browserNote != "" {
		note += fmt.Sprintf(" Browser: %s", browserNote)
	}
	return note, nil
}

func (o *Orchestrator) toolMapToCanonical(_ context.Context, s *State) (string, error) {
	canonical := make(map[string]string)
	for _, f := range s.Context.DiscoveredFields {
		if key := portal.CanonicalKey(f); key != "" {
			canonical[f.FieldID] = key
		}
	}
	s.Context.CanonicalFieldMap = canonical
	return "Mapped fields to canonical keys.", nil
}

func (o *Orchestrator) toolBuildFillActions(_ context.Context, s *State) (string, error) {
	adapter := portal.Pick(s.Context.PageURL, s.Context.PageHTML)

	answers := make(map[string]string, len(s.ProposedAnswers)+len(s.Context.UserInputs))
	for k, v := range s.ProposedAnswers {
		answers[k] = v
	}
	for k, v := range s.Context.UserInputs {
		answers[k] = v
	}

	actions := adapter.BuildFillActions(s.Context.DiscoveredFields, answers)
	if actions == nil {
		actions = []schemas.FillAction{}
	}
	s.Context.FillActions = actions
	return fmt.Sprintf("Built %d fill actions.", len(actions)), nil
}

func (o *Orchestrator) toolIdentifyMissingFields(_ context.Context, s *State) (string, error) {
	missing := []string{}
	for _, key := range portal.RequiredKeys {
		if strings.TrimSpace(s.Context.Value(key)) == "" {
			missing = append(missing, key)
		}
	}

	questions := []schemas.MissingFieldQuestion{}
	for _, key := range missing {
		readable := strings.ReplaceAll(key, "_", " ")
		q := schemas.MissingFieldQuestion{
			Field:     key,
			Question:  fmt.Sprintf("Please provide your %s.", readable),
			InputType: "text",
			Required:  true,
		}
		if portal.BooleanKeys[key] {
			q.Question = fmt.Sprintf("Please confirm your %s (yes/no).", readable)
			q.InputType = "boolean"
			q.Options = []string{"yes", "no"}
		}
		questions = append(questions, q)
	}

	s.Context.MissingFields = missing
	s.Context.NextQuestions = questions
	s.Context.MissingFieldsChecked = true

	if len(missing) == 0 {
		return "No missing fields.", nil
	}
	return fmt.Sprintf("Missing fields: %s", strings.Join(missing, ", ")), nil
}

func (o *Orchestrator) toolBuildApplicationPackage(_ context.Context, s *State) (string, error) {
	var fit any
	if s.FitScore != nil {
		fit = *s.FitScore
	}
	s.Context.Package = map[string]any{
		"selected_resume_id": s.SelectedResumeID,
		"fit_score":          fit,
		"decision":           s.ApplyDecision,
		"proposed_answers":   s.ProposedAnswers,
		"missing_fields":     s.Context.MissingFields,
		"portal":             s.Context.Portal,
		"discovered_fields":  s.Context.DiscoveredFields,
		"fill_actions":       s.Context.FillActions,
	}
	return "Prepared application package.", nil
}

func (o *Orchestrator) toolRequestUserInput(_ context.Context, _ *State) (string, error) {
	return "User input required to proceed.", nil
}
