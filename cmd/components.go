package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobfill/internal/agent"
	"github.com/xkilldash9x/jobfill/internal/browser"
	"github.com/xkilldash9x/jobfill/internal/config"
	"github.com/xkilldash9x/jobfill/internal/profile"
	"github.com/xkilldash9x/jobfill/internal/store"
)

// components holds the initialized services shared by the run and serve
// commands.
type components struct {
	Repo         store.Repository
	Orchestrator *agent.Orchestrator
	DBPool       *pgxpool.Pool
}

// Shutdown releases held resources.
func (c *components) Shutdown() {
	if c.DBPool != nil {
		c.DBPool.Close()
	}
}

// initializeComponents handles dependency injection. With no database URL
// configured the repository falls back to the in-memory implementation, so
// a run still works end to end without persistence across restarts.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DBPool = pool

		pg, err := store.NewPostgresStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		c.Repo = pg
		logger.Info("Using postgres repository")
	} else {
		c.Repo = store.NewMemoryStore()
		logger.Info("No database configured; using in-memory repository")
	}

	profiles := profile.NewProvider(c.Repo, logger)
	var fetcher *browser.Fetcher
	if cfg.Agent.BrowserFallback {
		fetcher = browser.NewFetcher(cfg.Browser, logger)
	}

	c.Orchestrator = agent.NewOrchestrator(cfg.Agent, c.Repo, profiles, fetcher, logger)
	return c, nil
}
