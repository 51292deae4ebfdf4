// Package store persists agent runs, audit steps, profiles, resumes and
// confirmed user facts. Two implementations share one contract: an explicit
// in-memory repository for DB-less operation and a PostgreSQL repository.
package store

import (
	"context"
	"time"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// AgentRun is the durable record of one orchestrator run.
type AgentRun struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Goal             string    `json:"goal"`
	Status           string    `json:"status"`
	FitScore         *float64  `json:"fit_score,omitempty"`
	SelectedResumeID string    `json:"selected_resume_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ResumeData is the parsed content of an uploaded resume.
type ResumeData struct {
	Skills   []string `json:"skills"`
	Projects []string `json:"projects"`
}

// Resume is one uploaded resume belonging to a user.
type Resume struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Filename   string     `json:"filename"`
	ResumeType string     `json:"resume_type,omitempty"`
	Parsed     ResumeData `json:"parsed"`
	UploadedAt time.Time  `json:"uploaded_at"`
}

// UserFact is a confirmed key/value answer remembered across runs,
// upserted by (user, key).
type UserFact struct {
	UserID          string    `json:"user_id"`
	Key             string    `json:"key"`
	Value           string    `json:"value"`
	Source          string    `json:"source"`
	LastConfirmedAt time.Time `json:"last_confirmed_at"`
}

// Repository is the persistence contract consumed by the agent. Writes are
// committed per mutation (at-least-once), so a mid-run failure leaves prior
// steps durable.
type Repository interface {
	CreateRun(ctx context.Context, run *AgentRun) error
	FinishRun(ctx context.Context, runID, status string, fitScore *float64, selectedResumeID string) error
	LogStep(ctx context.Context, runID string, stepNum int, step schemas.AgentStep) error

	GetProfile(ctx context.Context, userID string) (*schemas.Profile, error)
	SaveProfile(ctx context.Context, profile *schemas.Profile) error

	ListResumes(ctx context.Context, userID string) ([]Resume, error)
	SaveResume(ctx context.Context, resume *Resume) error

	UserFacts(ctx context.Context, userID string) (map[string]string, error)
	UpsertUserFacts(ctx context.Context, userID string, facts map[string]string, source string) error
}
