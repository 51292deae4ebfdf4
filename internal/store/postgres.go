package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// DBPool abstracts pgxpool.Pool so the repository can be exercised against
// pgxmock in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is the PostgreSQL implementation of Repository. Each write
// is its own statement; the agent's persistence contract is at-least-once
// per mutation, not atomic-per-run.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

// NewPostgresStore creates a repository and verifies the connection.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool, log: logger.Named("store")}, nil
}

// EnsureSchema creates the repository tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS agent_runs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			goal TEXT NOT NULL,
			status TEXT NOT NULL,
			fit_score DOUBLE PRECISION,
			selected_resume_id TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS agent_step_logs (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES agent_runs(id),
			step_num INT NOT NULL,
			name TEXT NOT NULL,
			tool TEXT,
			status TEXT NOT NULL,
			details JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS resumes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			resume_type TEXT,
			parsed JSONB NOT NULL DEFAULT '{}',
			uploaded_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_facts (
			user_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			source TEXT NOT NULL,
			last_confirmed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, key)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *AgentRun) error {
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agent_runs (id, user_id, goal, status, fit_score, selected_resume_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.UserID, run.Goal, run.Status, run.FitScore, nullable(run.SelectedResumeID), run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert agent run: %w", err)
	}
	return nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID, status string, fitScore *float64, selectedResumeID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE agent_runs
		SET status = $2, fit_score = $3, selected_resume_id = $4, updated_at = $5
		WHERE id = $1`,
		runID, status, fitScore, nullable(selectedResumeID), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to finish agent run: %w", err)
	}
	return nil
}

func (s *PostgresStore) LogStep(ctx context.Context, runID string, stepNum int, step schemas.AgentStep) error {
	details, err := json.Marshal(step.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal step details: %w", err)
	}
	if len(details) == 0 || string(details) == "null" {
		details = json.RawMessage("{}")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO agent_step_logs (run_id, step_num, name, tool, status, details)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		runID, stepNum, step.Name, nullable(step.Tool), string(step.Status), details)
	if err != nil {
		return fmt.Errorf("failed to insert step log: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*schemas.Profile, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM profiles WHERE user_id = $1`, userID).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	var profile schemas.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, profile *schemas.Profile) error {
	profile.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		profile.UserID, data, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResumes(ctx context.Context, userID string) ([]Resume, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, filename, COALESCE(resume_type, ''), parsed, uploaded_at
		FROM resumes WHERE user_id = $1
		ORDER BY uploaded_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resumes: %w", err)
	}
	defer rows.Close()

	var resumes []Resume
	for rows.Next() {
		var r Resume
		var parsed []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.Filename, &r.ResumeType, &parsed, &r.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		if err := json.Unmarshal(parsed, &r.Parsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resume data: %w", err)
		}
		resumes = append(resumes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resumes: %w", err)
	}
	return resumes, nil
}

func (s *PostgresStore) SaveResume(ctx context.Context, resume *Resume) error {
	if resume.UploadedAt.IsZero() {
		resume.UploadedAt = time.Now().UTC()
	}
	parsed, err := json.Marshal(resume.Parsed)
	if err != nil {
		return fmt.Errorf("failed to marshal resume data: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO resumes (id, user_id, filename, resume_type, parsed, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			resume_type = EXCLUDED.resume_type,
			parsed = EXCLUDED.parsed`,
		resume.ID, resume.UserID, resume.Filename, nullable(resume.ResumeType), parsed, resume.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert resume: %w", err)
	}
	return nil
}

func (s *PostgresStore) UserFacts(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM user_facts WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user facts: %w", err)
	}
	defer rows.Close()

	facts := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan user fact: %w", err)
		}
		facts[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user facts: %w", err)
	}
	return facts, nil
}

func (s *PostgresStore) UpsertUserFacts(ctx context.Context, userID string, facts map[string]string, source string) error {
	now := time.Now().UTC()
	for key, value := range facts {
		if value == "" {
			continue
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO user_facts (user_id, key, value, source, last_confirmed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, key) DO UPDATE SET
				value = EXCLUDED.value,
				source = EXCLUDED.source,
				last_confirmed_at = EXCLUDED.last_confirmed_at`,
			userID, key, value, source, now)
		if err != nil {
			return fmt.Errorf("failed to upsert user fact %q: %w", key, err)
		}
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ Repository = (*PostgresStore)(nil)
