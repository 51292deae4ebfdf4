package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// MemoryStore is a process-lifetime in-memory repository. It is an explicit
// object passed by reference, never ambient package state, and implements
// the same contract as the PostgreSQL repository.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]*AgentRun
	steps    map[string][]schemas.AgentStep
	profiles map[string]*schemas.Profile
	resumes  map[string][]Resume
	facts    map[string]map[string]UserFact
}

// NewMemoryStore creates an empty in-memory repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:     make(map[string]*AgentRun),
		steps:    make(map[string][]schemas.AgentStep),
		profiles: make(map[string]*schemas.Profile),
		resumes:  make(map[string][]Resume),
		facts:    make(map[string]map[string]UserFact),
	}
}

func (s *MemoryStore) CreateRun(ctx context.Context, run *AgentRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *MemoryStore) FinishRun(ctx context.Context, runID, status string, fitScore *float64, selectedResumeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run %q not found", runID)
	}
	run.Status = status
	run.FitScore = fitScore
	run.SelectedResumeID = selectedResumeID
	run.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) LogStep(ctx context.Context, runID string, stepNum int, step schemas.AgentStep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[runID] = append(s.steps[runID], step)
	return nil
}

// Steps returns the recorded audit steps of a run, in insertion order.
func (s *MemoryStore) Steps(runID string) []schemas.AgentStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schemas.AgentStep, len(s.steps[runID]))
	copy(out, s.steps[runID])
	return out
}

func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (*schemas.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *profile
	return &cp, nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, profile *schemas.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile.UpdatedAt = time.Now().UTC()
	cp := *profile
	s.profiles[profile.UserID] = &cp
	return nil
}

func (s *MemoryStore) ListResumes(ctx context.Context, userID string) ([]Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Resume, len(s.resumes[userID]))
	copy(out, s.resumes[userID])
	return out, nil
}

func (s *MemoryStore) SaveResume(ctx context.Context, resume *Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resume.UploadedAt.IsZero() {
		resume.UploadedAt = time.Now().UTC()
	}
	s.resumes[resume.UserID] = append(s.resumes[resume.UserID], *resume)
	return nil
}

func (s *MemoryStore) UserFacts(ctx context.Context, userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.facts[userID]))
	for key, fact := range s.facts[userID] {
		out[key] = fact.Value
	}
	return out, nil
}

func (s *MemoryStore) UpsertUserFacts(ctx context.Context, userID string, facts map[string]string, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.facts[userID] == nil {
		s.facts[userID] = make(map[string]UserFact)
	}
	now := time.Now().UTC()
	for key, value := range facts {
		if value == "" {
			continue
		}
		s.facts[userID][key] = UserFact{
			UserID:          userID,
			Key:             key,
			Value:           value,
			Source:          source,
			LastConfirmedAt: now,
		}
	}
	return nil
}

var _ Repository = (*MemoryStore)(nil)
