// Package postgresql provides PostgreSQL persistence for automations,
// executions and watcher state.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/reflexhq/reflex/pkg/persistence"
	"github.com/reflexhq/reflex/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL. Automations
// and executions are stored as jsonb documents with a few indexed columns;
// watcher state is one row per domain.
type Persistence struct {
	db             *sql.DB
	logger         *slog.Logger
	automationRepo *AutomationRepository
	executionRepo  *ExecutionRepository
	stateRepo      *WatcherStateRepository
}

func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		automationRepo: NewAutomationRepository(database, logger),
		executionRepo:  NewExecutionRepository(database, logger),
		stateRepo:      NewWatcherStateRepository(database),
	}, nil
}

func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return p.automationRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) WatcherStateRepository() persistence.WatcherStateRepository {
	return p.stateRepo
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS automations (
				id TEXT PRIMARY KEY,
				status TEXT NOT NULL,
				trigger_type TEXT NOT NULL,
				version INTEGER NOT NULL,
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_automations_status ON automations (status);
			CREATE INDEX IF NOT EXISTS idx_automations_trigger_type ON automations (trigger_type);

			CREATE TABLE IF NOT EXISTS executions (
				id TEXT PRIMARY KEY,
				automation_id TEXT NOT NULL,
				status TEXT NOT NULL,
				triggered_at TIMESTAMP WITH TIME ZONE NOT NULL,
				document JSONB NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_executions_automation ON executions (automation_id, triggered_at DESC);

			CREATE TABLE IF NOT EXISTS watcher_states (
				domain TEXT PRIMARY KEY,
				last_check TIMESTAMP WITH TIME ZONE,
				processed_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
	}
}
