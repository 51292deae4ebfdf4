package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/api/schemas"
	"github.com/xkilldash9x/jobfill/internal/browser"
	"github.com/xkilldash9x/jobfill/internal/config"
	"github.com/xkilldash9x/jobfill/internal/profile"
	"github.com/xkilldash9x/jobfill/internal/store"
)

// Orchestrator runs the agent loop. The repository and browser fetcher are
// optional; without a repository runs are not persisted and resume
// selection is skipped, without a fetcher discovery never leaves static HTML.
type Orchestrator struct {
	cfg      config.AgentConfig
	repo     store.Repository
	profiles *profile.Provider
	fetcher  *browser.Fetcher
	log      *zap.Logger
}

func NewOrchestrator(cfg config.AgentConfig, repo store.Repository, profiles *profile.Provider, fetcher *browser.Fetcher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		repo:     repo,
		profiles: profiles,
		fetcher:  fetcher,
		log:      logger.Named("agent"),
	}
}

// RunInput is everything a single run needs.
type RunInput struct {
	UserID         string
	Goal           string
	JobDescription string
	PageURL        string
	PageHTML       string
	Profile        *schemas.Profile
	Constraints    map[string]any
	UserInputs     map[string]string
}

// RunResult is the run contract's output: the audit trail, the proposed
// answers keyed by canonical key, and what is still missing.
type RunResult struct {
	Steps           []schemas.AgentStep
	ProposedAnswers map[string]string
	Meta            schemas.RunMeta
	Status          string
	RunID           string
}

// Run drives one think-act-observe loop to completion, block, or step
// budget exhaustion. Every step is appended to the audit trail and, when a
// repository is configured, persisted as it happens.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	constraints := ParseConstraints(in.Constraints, o.cfg.MaxSteps, o.cfg.MinFitScore)

	runCtx := &Context{
		JobDescription: in.JobDescription,
		PageURL:        in.PageURL,
		PageHTML:       in.PageHTML,
		// Without a repository there is nothing to select resumes from.
		ResumeSelectionSkipped: o.repo == nil,
	}
	s := newState(in.UserID, in.Goal, constraints, in.Profile, runCtx)

	if o.repo != nil {
		facts, err := o.repo.UserFacts(ctx, in.UserID)
		if err != nil {
			o.log.Warn("failed to load user facts", zap.Error(err))
		} else {
			for k, v := range facts {
				s.Context.UserFacts[k] = v
			}
		}
	}
	if len(in.UserInputs) > 0 {
		for k, v := range in.UserInputs {
			s.Context.UserInputs[k] = v
		}
		// Fresh answers invalidate any earlier missing-field verdict.
		s.Context.MissingFieldsChecked = false
		if o.repo != nil {
			if err := o.repo.UpsertUserFacts(ctx, in.UserID, in.UserInputs, "user_confirmed"); err != nil {
				o.log.Warn("failed to persist user facts", zap.Error(err))
			}
		}
	}

	if o.repo != nil {
		run := &store.AgentRun{
			ID:     uuid.NewString(),
			UserID: in.UserID,
			Goal:   in.Goal,
			Status: StatusPlanning,
		}
		if err := o.repo.CreateRun(ctx, run); err != nil {
			o.log.Warn("failed to create run record", zap.Error(err))
		} else {
			s.Context.RunID = run.ID
		}
	}

	steps := make([]schemas.AgentStep, 0, constraints.MaxSteps*2)
	tools := o.toolTable()

	for s.Step < constraints.MaxSteps && !s.Completed {
		tool := DecideNextTool(s)
		if tool == "" {
			s.Completed = true
			s.Status = StatusCompleted
			break
		}
		currentStep := s.Step + 1

		planStep := schemas.AgentStep{
			Name:   "plan",
			Status: schemas.StepThinking,
			Tool:   string(tool),
			Details: map[string]any{
				"chosen_tool":      string(tool),
				"reason":           reasonForTool(tool),
				"success_criteria": successForTool(tool),
				"step":             s.Step,
				"next_step":        s.Step + 1,
				"current_step":     s.Step,
				"tool":             string(tool),
			},
		}
		steps = append(steps, planStep)
		o.logStep(ctx, s, currentStep, planStep)

		note, err := tools[tool](ctx, s)
		s.Step = currentStep
		if err != nil {
			s.Retries[tool]++
			s.LastError = err.Error()
			failedStep := schemas.AgentStep{
				Name:   string(tool),
				Status: schemas.StepFailed,
				Tool:   string(tool),
				Details: map[string]any{
					"error": s.LastError,
					"retry": s.Retries[tool],
				},
			}
			steps = append(steps, failedStep)
			o.logStep(ctx, s, currentStep, failedStep)
			o.log.Warn("tool failed", zap.String("tool", string(tool)), zap.Error(err))
			if s.Retries[tool] > o.cfg.MaxToolRetries {
				s.Status = StatusBlocked
				s.Completed = true
			}
			continue
		}

		s.Observations = append(s.Observations, Observation{
			Step:      currentStep,
			Tool:      tool,
			Result:    note,
			Timestamp: time.Now().UTC(),
		})
		s.Actions = append(s.Actions, ActionRecord{
			Step:   currentStep,
			Tool:   tool,
			Inputs: inputsForTool(tool, s),
		})

		if tool == ToolMapFields && len(strings.TrimSpace(s.Context.JobDescription)) < 20 {
			s.LastError = "Job description missing or too short; need user input."
			s.Status = StatusBlocked
			s.Completed = true
			promptNote, _ := o.toolRequestUserInput(ctx, s)
			askStep := schemas.AgentStep{
				Name:   string(ToolRequestUserInput),
				Status: schemas.StepActed,
				Tool:   string(ToolRequestUserInput),
				Details: map[string]any{
					"result":   promptNote,
					"question": "Please paste the job description or key requirements.",
				},
			}
			steps = append(steps, askStep)
			o.logStep(ctx, s, currentStep, askStep)
			break
		}

		if tool == ToolIdentifyMissingFields {
			identifyStep := schemas.AgentStep{
				Name:   string(tool),
				Status: schemas.StepActed,
				Tool:   string(tool),
				Details: map[string]any{
					"missing_fields": s.Context.MissingFields,
					"missing_count":  len(s.Context.MissingFields),
				},
			}
			steps = append(steps, identifyStep)
			o.logStep(ctx, s, currentStep, identifyStep)

			if len(s.Context.MissingFields) > 0 {
				s.LastError = "Missing required fields; need user input."
				s.Status = StatusBlocked
				s.Completed = true
				askStep := schemas.AgentStep{
					Name:   string(ToolRequestUserInput),
					Status: schemas.StepActed,
					Tool:   string(ToolRequestUserInput),
					Details: map[string]any{
						"result":    "User input required to proceed.",
						"questions": s.Context.NextQuestions,
					},
				}
				steps = append(steps, askStep)
				o.logStep(ctx, s, currentStep, askStep)
				break
			}
			continue
		}

		actedStep := schemas.AgentStep{
			Name:    string(tool),
			Status:  schemas.StepActed,
			Tool:    string(tool),
			Details: map[string]any{"result": note},
		}
		steps = append(steps, actedStep)
		o.logStep(ctx, s, currentStep, actedStep)
	}

	// Budget exhaustion is a normal completion, not a failure.
	if !s.Completed {
		s.Status = StatusCompleted
		s.Completed = true
	}

	finishStatus := s.Status
	switch finishStatus {
	case StatusCompleted, StatusBlocked, StatusFailed:
	default:
		finishStatus = StatusCompleted
	}
	finishStep := schemas.AgentStep{
		Name:   "finish",
		Status: schemas.StepStatus(finishStatus),
		Details: map[string]any{
			"summary":    "Agent loop finished",
			"last_error": s.LastError,
		},
	}
	steps = append(steps, finishStep)
	o.logStep(ctx, s, s.Step+1, finishStep)

	if o.repo != nil && s.Context.RunID != "" {
		if err := o.repo.FinishRun(ctx, s.Context.RunID, s.Status, s.FitScore, s.SelectedResumeID); err != nil {
			o.log.Warn("failed to finish run record", zap.Error(err))
		}
	}

	missing := s.Context.MissingFields
	if missing == nil {
		missing = []string{}
	}
	questions := s.Context.NextQuestions
	if questions == nil {
		questions = []schemas.MissingFieldQuestion{}
	}
	return &RunResult{
		Steps:           steps,
		ProposedAnswers: s.ProposedAnswers,
		Meta:            schemas.RunMeta{MissingFields: missing, NextQuestions: questions},
		Status:          s.Status,
		RunID:           s.Context.RunID,
	}, nil
}

func (o *Orchestrator) logStep(ctx context.Context, s *State, stepNum int, step schemas.AgentStep) {
	if o.repo == nil || s.Context.RunID == "" {
		return
	}
	if err := o.repo.LogStep(ctx, s.Context.RunID, stepNum, step); err != nil {
		o.log.Warn("failed to log step", zap.String("step", step.Name), zap.Error(err))
	}
}
