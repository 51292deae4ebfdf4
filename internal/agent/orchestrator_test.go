package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/api/schemas"
	"github.com/xkilldash9x/jobfill/internal/config"
	"github.com/xkilldash9x/jobfill/internal/profile"
	"github.com/xkilldash9x/jobfill/internal/store"
)

const greenhouseHTML = `<html><body>
<!-- greenhouse application -->
<form>
  <input name="cover_letter" type="text">
  <input name="key_skills" type="text">
</form>
</body></html>`

func testAgentConfig() config.AgentConfig {
	return config.AgentConfig{
		MaxSteps:       6,
		MinFitScore:    0.6,
		MaxToolRetries: 1,
	}
}

func newTestOrchestrator(t *testing.T, cfg config.AgentConfig, repo store.Repository) *Orchestrator {
	t.Helper()
	logger := zap.NewNop()
	return NewOrchestrator(cfg, repo, profile.NewProvider(repo, logger), nil, logger)
}

func skilledProfile(userID string) *schemas.Profile {
	return &schemas.Profile{
		UserID: userID,
		Skills: []string{"python", "fastapi", "sql", "postgres", "machine learning", "ml", "data"},
	}
}

func stepNames(steps []schemas.AgentStep) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}

func TestRunBlocksOnShortJobDescription(t *testing.T) {
	orch := newTestOrchestrator(t, testAgentConfig(), nil)

	result, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "short",
		Profile:        skilledProfile("u1"),
		Constraints:    map[string]any{"min_fit_score": 0.0, "max_steps": 20},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusBlocked, result.Status)
	names := stepNames(result.Steps)
	assert.Contains(t, names, "map_fields")
	assert.Contains(t, names, "request_user_input")
	assert.NotContains(t, names, "draft_answers")
	assert.Equal(t, "finish", names[len(names)-1])
}

func TestRunSkipsOnLowFitScore(t *testing.T) {
	orch := newTestOrchestrator(t, testAgentConfig(), nil)

	// Rich requirement surface, narrow profile: fit lands well below 0.6.
	result, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "We need python, fastapi, sql, postgres, machine learning, ml and data chops.",
		Profile:        &schemas.Profile{UserID: "u1", Skills: []string{"python"}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, result.Status)
	names := stepNames(result.Steps)
	assert.Contains(t, names, "decide_apply_strategy")
	assert.NotContains(t, names, "map_fields")
	assert.Equal(t, "finish", names[len(names)-1])
	assert.Empty(t, result.ProposedAnswers)
}

func TestRunCompletesFullPipeline(t *testing.T) {
	repo := store.NewMemoryStore()
	orch := newTestOrchestrator(t, testAgentConfig(), repo)

	result, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "Senior role needing python, fastapi, sql, postgres, machine learning, ml and data. 5 years required.",
		PageURL:        "https://boards.greenhouse.io/acme/jobs/1",
		PageHTML:       greenhouseHTML,
		Profile:        skilledProfile("u1"),
		Constraints:    map[string]any{"max_steps": 20},
		UserInputs: map[string]string{
			"work_authorization": "yes",
			"notice_period":      "2 weeks",
			"expected_salary":    "100000",
			"relocation":         "no",
			"visa_sponsorship":   "no",
			"location":           "Berlin",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Empty(t, result.Meta.MissingFields)
	assert.Empty(t, result.Meta.NextQuestions)
	assert.Contains(t, result.ProposedAnswers, "cover_letter")
	assert.Contains(t, result.ProposedAnswers, "key_skills")

	names := stepNames(result.Steps)
	for _, expected := range []string{
		"analyze_job", "score_fit", "decide_apply_strategy", "map_fields",
		"draft_answers", "detect_portal", "discover_fields",
		"map_to_canonical", "build_fill_actions", "identify_missing_fields",
		"build_application_package", "finish",
	} {
		assert.Contains(t, names, expected)
	}

	// Every step except the synthetic finish was persisted.
	require.NotEmpty(t, result.RunID)
	logged := repo.Steps(result.RunID)
	assert.Len(t, logged, len(result.Steps))
}

func TestRunBlocksOnMissingRequiredFields(t *testing.T) {
	orch := newTestOrchestrator(t, testAgentConfig(), nil)

	result, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "Role needing python, fastapi, sql, postgres, machine learning, ml and data.",
		PageURL:        "https://boards.greenhouse.io/acme/jobs/1",
		PageHTML:       greenhouseHTML,
		Profile:        skilledProfile("u1"),
		Constraints:    map[string]any{"max_steps": 20},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusBlocked, result.Status)
	assert.ElementsMatch(t, []string{
		"work_authorization", "notice_period", "expected_salary",
		"relocation", "visa_sponsorship", "location",
	}, result.Meta.MissingFields)
	require.Len(t, result.Meta.NextQuestions, 6)
	for _, q := range result.Meta.NextQuestions {
		assert.True(t, q.Required)
		if q.InputType == "boolean" {
			assert.Equal(t, []string{"yes", "no"}, q.Options)
		}
	}
	assert.Contains(t, stepNames(result.Steps), "request_user_input")
}

func TestRunStopsAtStepBudget(t *testing.T) {
	cfg := testAgentConfig()
	cfg.MaxSteps = 3
	orch := newTestOrchestrator(t, cfg, nil)

	result, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "Role needing python, fastapi, sql, postgres, machine learning, ml and data.",
		Profile:        skilledProfile("u1"),
	})
	require.NoError(t, err)

	// Budget exhaustion is a normal completion.
	assert.Equal(t, StatusCompleted, result.Status)

	acted := 0
	for _, s := range result.Steps {
		if s.Status == schemas.StepActed || s.Status == schemas.StepFailed {
			acted++
		}
	}
	assert.LessOrEqual(t, acted, 3)
	assert.Equal(t, "finish", result.Steps[len(result.Steps)-1].Name)
}

// failingRepo wraps the memory store and fails resume listing, driving the
// retry and escalation path.
type failingRepo struct {
	*store.MemoryStore
	listCalls int
}

func (f *failingRepo) ListResumes(ctx context.Context, userID string) ([]store.Resume, error) {
	f.listCalls++
	return nil, fmt.Errorf("resume backend unavailable")
}

func TestRunBlocksAfterRepeatedToolFailure(t *testing.T) {
	repo := &failingRepo{MemoryStore: store.NewMemoryStore()}
	orch := newTestOrchestrator(t, testAgentConfig(), repo)

	result, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "Role needing python, fastapi, sql, postgres, machine learning, ml and data.",
		Profile:        skilledProfile("u1"),
		Constraints:    map[string]any{"max_steps": 20},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusBlocked, result.Status)
	assert.Equal(t, 2, repo.listCalls)

	failed := 0
	for _, s := range result.Steps {
		if s.Status == schemas.StepFailed {
			failed++
			assert.Equal(t, "select_resume", s.Name)
		}
	}
	assert.Equal(t, 2, failed)
}

func TestRunHonorsConfiguredRetryLimit(t *testing.T) {
	cfg := testAgentConfig()
	cfg.MaxToolRetries = 3
	repo := &failingRepo{MemoryStore: store.NewMemoryStore()}
	orch := newTestOrchestrator(t, cfg, repo)

	result, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "Role needing python, fastapi, sql, postgres, machine learning, ml and data.",
		Profile:        skilledProfile("u1"),
		Constraints:    map[string]any{"max_steps": 20},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusBlocked, result.Status)
	assert.Equal(t, 4, repo.listCalls)
}

func TestRunPersistsUserInputsAsFacts(t *testing.T) {
	repo := store.NewMemoryStore()
	orch := newTestOrchestrator(t, testAgentConfig(), repo)

	_, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "Role needing python, fastapi, sql, postgres, machine learning, ml and data.",
		Profile:        skilledProfile("u1"),
		UserInputs:     map[string]string{"expected_salary": "95000"},
	})
	require.NoError(t, err)

	facts, err := repo.UserFacts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "95000", facts["expected_salary"])
}

func TestRunBootstrapsProfileFromJobDescription(t *testing.T) {
	orch := newTestOrchestrator(t, testAgentConfig(), nil)

	result, err := orch.Run(context.Background(), RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "Backend role with Python, FastAPI and SQL on PostgreSQL. Docker a plus.",
		Constraints:    map[string]any{"max_steps": 20, "min_fit_score": 0.0},
	})
	require.NoError(t, err)

	names := stepNames(result.Steps)
	assert.Contains(t, names, "fetch_profile")
	assert.Contains(t, names, "draft_answers")
	assert.Contains(t, result.ProposedAnswers["key_skills"], "SQL")
}

func TestRunSelectsBestResume(t *testing.T) {
	repo := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, repo.SaveResume(ctx, &store.Resume{
		ID: "r-generic", UserID: "u1", Filename: "generic.pdf",
		Parsed: store.ResumeData{Skills: []string{"excel"}},
	}))
	require.NoError(t, repo.SaveResume(ctx, &store.Resume{
		ID: "r-backend", UserID: "u1", Filename: "backend.pdf", ResumeType: "backend",
		Parsed: store.ResumeData{Skills: []string{"python", "sql", "postgres"}},
	}))

	orch := newTestOrchestrator(t, testAgentConfig(), repo)
	result, err := orch.Run(ctx, RunInput{
		UserID:         "u1",
		Goal:           "apply",
		JobDescription: "Role needing python, sql and postgres. 5 years.",
		Profile:        skilledProfile("u1"),
		Constraints:    map[string]any{"max_steps": 20, "target_resume_type": "backend"},
		UserInputs: map[string]string{
			"work_authorization": "yes",
			"notice_period":      "2 weeks",
			"expected_salary":    "100000",
			"relocation":         "no",
			"visa_sponsorship":   "no",
			"location":           "Berlin",
		},
	})
	require.NoError(t, err)

	var selectNote string
	for _, s := range result.Steps {
		if s.Name == "select_resume" && s.Status == schemas.StepActed {
			selectNote, _ = s.Details["result"].(string)
		}
	}
	assert.Equal(t, "Selected resume r-backend", selectNote)
}

func TestScoreResume(t *testing.T) {
	analysis := &JobAnalysis{
		MustHaveSkills:   []string{"python", "sql"},
		NiceToHaveSkills: []string{"docker"},
	}

	testCases := []struct {
		name     string
		resume   store.Resume
		target   string
		expected float64
	}{
		{
			name: "skill and project hits",
			resume: store.Resume{
				Parsed: store.ResumeData{
					Skills:   []string{"python"},
					Projects: []string{"Built SQL pipelines with Docker"},
				},
			},
			expected: 2*2 + 1,
		},
		{
			name: "type match bonus",
			resume: store.Resume{
				ResumeType: "Backend",
				Parsed:     store.ResumeData{Skills: []string{"python"}},
			},
			target:   "backend",
			expected: 2 + 1.5,
		},
		{
			name:     "no overlap",
			resume:   store.Resume{Parsed: store.ResumeData{Skills: []string{"excel"}}},
			expected: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, scoreResume(&tc.resume, analysis, tc.target), 1e-9)
		})
	}
}

func TestParseConstraints(t *testing.T) {
	c := ParseConstraints(map[string]any{
		"max_steps":          float64(12),
		"min_fit_score":      0.4,
		"target_resume_type": "backend",
		"years_experience":   7,
	}, 6, 0.6)
	assert.Equal(t, 12, c.MaxSteps)
	assert.Equal(t, 0.4, c.MinFitScore)
	assert.Equal(t, "backend", c.TargetResumeType)
	assert.Equal(t, "7", c.YearsExperience)

	defaults := ParseConstraints(nil, 6, 0.6)
	assert.Equal(t, 6, defaults.MaxSteps)
	assert.Equal(t, 0.6, defaults.MinFitScore)
	assert.Equal(t, "5", defaults.YearsExperience)
}
