package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

func TestMemoryStoreRunLifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	run := &AgentRun{ID: "run-1", UserID: "u1", Goal: "apply", Status: "planning"}
	require.NoError(t, s.CreateRun(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())

	require.NoError(t, s.LogStep(ctx, "run-1", 1, schemas.AgentStep{Name: "plan", Status: schemas.StepThinking}))
	require.NoError(t, s.LogStep(ctx, "run-1", 1, schemas.AgentStep{Name: "analyze_job", Status: schemas.StepActed}))

	fit := 0.8
	require.NoError(t, s.FinishRun(ctx, "run-1", "completed", &fit, "r1"))

	steps := s.Steps("run-1")
	require.Len(t, steps, 2)
	assert.Equal(t, "plan", steps[0].Name)
	assert.Equal(t, "analyze_job", steps[1].Name)
}

func TestMemoryStoreFinishUnknownRun(t *testing.T) {
	s := NewMemoryStore()
	err := s.FinishRun(context.Background(), "missing", "completed", nil, "")
	assert.Error(t, err)
}

func TestMemoryStoreProfileRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	got, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.SaveProfile(ctx, &schemas.Profile{UserID: "u1", Skills: []string{"python"}}))
	got, err = s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"python"}, got.Skills)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMemoryStoreResumes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	resumes, err := s.ListResumes(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, resumes)

	require.NoError(t, s.SaveResume(ctx, &Resume{ID: "r1", UserID: "u1", Filename: "a.pdf"}))
	require.NoError(t, s.SaveResume(ctx, &Resume{ID: "r2", UserID: "u1", Filename: "b.pdf", ResumeType: "backend"}))

	resumes, err = s.ListResumes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, resumes, 2)
	assert.Equal(t, "r1", resumes[0].ID)
	assert.False(t, resumes[0].UploadedAt.IsZero())
}

func TestMemoryStoreUserFacts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.UpsertUserFacts(ctx, "u1", map[string]string{
		"expected_salary": "90000",
		"location":        "Berlin",
		"ignored":         "",
	}, "user_confirmed"))

	facts, err := s.UserFacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"expected_salary": "90000",
		"location":        "Berlin",
	}, facts)

	// Upsert overwrites by key.
	require.NoError(t, s.UpsertUserFacts(ctx, "u1", map[string]string{"location": "Munich"}, "user_confirmed"))
	facts, err = s.UserFacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Munich", facts["location"])
}

func TestMemoryStoreIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	prof := &schemas.Profile{UserID: "u1", Skills: []string{"python"}}
	require.NoError(t, s.SaveProfile(ctx, prof))

	// Mutating the caller's copy must not leak into the store.
	prof.UserID = "changed"
	got, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}
