package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for
// more robust SQL mock testing.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockedStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing()
	s, err := NewPostgresStore(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	return s, mockPool
}

func TestNewPostgresStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = NewPostgresStore(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestCreateAndFinishRun(t *testing.T) {
	ctx := context.Background()
	s, mockPool := newMockedStore(t)

	run := &AgentRun{ID: "run-1", UserID: "u1", Goal: "apply", Status: "planning"}
	mockPool.ExpectExec(flexibleSQLMatcher(`INSERT INTO agent_runs`)).
		WithArgs(run.ID, run.UserID, run.Goal, run.Status, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.CreateRun(ctx, run))
	assert.False(t, run.CreatedAt.IsZero())

	fit := 0.7
	mockPool.ExpectExec(flexibleSQLMatcher(`UPDATE agent_runs`)).
		WithArgs("run-1", "completed", &fit, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, s.FinishRun(ctx, "run-1", "completed", &fit, "r1"))

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestLogStep(t *testing.T) {
	ctx := context.Background()
	s, mockPool := newMockedStore(t)

	step := schemas.AgentStep{
		Name:    "plan",
		Status:  schemas.StepThinking,
		Tool:    "analyze_job",
		Details: map[string]any{"chosen_tool": "analyze_job"},
	}
	details, err := json.Marshal(step.Details)
	require.NoError(t, err)

	mockPool.ExpectExec(flexibleSQLMatcher(`INSERT INTO agent_step_logs`)).
		WithArgs("run-1", 1, "plan", "analyze_job", "thinking", details).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.LogStep(ctx, "run-1", 1, step))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil without error when absent", func(t *testing.T) {
		s, mockPool := newMockedStore(t)
		mockPool.ExpectQuery(flexibleSQLMatcher(`SELECT data FROM profiles WHERE user_id = $1`)).
			WithArgs("u1").
			WillReturnError(pgx.ErrNoRows)

		profile, err := s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, profile)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unmarshals stored profile", func(t *testing.T) {
		s, mockPool := newMockedStore(t)
		stored := schemas.Profile{UserID: "u1", Skills: []string{"python"}}
		data, err := json.Marshal(stored)
		require.NoError(t, err)

		mockPool.ExpectQuery(flexibleSQLMatcher(`SELECT data FROM profiles WHERE user_id = $1`)).
			WithArgs("u1").
			WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow(data))

		profile, err := s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, []string{"python"}, profile.Skills)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestSaveProfile(t *testing.T) {
	ctx := context.Background()
	s, mockPool := newMockedStore(t)

	mockPool.ExpectExec(flexibleSQLMatcher(`INSERT INTO profiles`)).
		WithArgs("u1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveProfile(ctx, &schemas.Profile{UserID: "u1", Skills: []string{"python"}}))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestListResumes(t *testing.T) {
	ctx := context.Background()
	s, mockPool := newMockedStore(t)

	uploaded := time.Now().UTC()
	parsed, err := json.Marshal(ResumeData{Skills: []string{"python"}, Projects: []string{"etl"}})
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"id", "user_id", "filename", "resume_type", "parsed", "uploaded_at"}).
		AddRow("r1", "u1", "a.pdf", "backend", parsed, uploaded)
	mockPool.ExpectQuery(flexibleSQLMatcher(`SELECT id, user_id, filename`)).
		WithArgs("u1").
		WillReturnRows(rows)

	resumes, err := s.ListResumes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, resumes, 1)
	assert.Equal(t, "r1", resumes[0].ID)
	assert.Equal(t, []string{"python"}, resumes[0].Parsed.Skills)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUserFactsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mockPool := newMockedStore(t)

	mockPool.ExpectExec(flexibleSQLMatcher(`INSERT INTO user_facts`)).
		WithArgs("u1", "location", "Berlin", "user_confirmed", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.UpsertUserFacts(ctx, "u1", map[string]string{
		"location": "Berlin",
		"skipped":  "",
	}, "user_confirmed"))

	rows := pgxmock.NewRows([]string{"key", "value"}).AddRow("location", "Berlin")
	mockPool.ExpectQuery(flexibleSQLMatcher(`SELECT key, value FROM user_facts`)).
		WithArgs("u1").
		WillReturnRows(rows)

	facts, err := s.UserFacts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"location": "Berlin"}, facts)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	s, mockPool := newMockedStore(t)

	for i := 0; i < 5; i++ {
		mockPool.ExpectExec(flexibleSQLMatcher(`CREATE TABLE IF NOT EXISTS`)).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
