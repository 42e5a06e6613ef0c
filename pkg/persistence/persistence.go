// Package persistence provides the storage abstraction for automations,
// executions and watcher state.
package persistence

import (
	"context"

	"github.com/reflexhq/reflex/pkg/models"
)

// AutomationRepository stores automation definitions. Implementations
// normalize triggers on load and save so downstream code only sees the
// canonical tagged-variant shape.
type AutomationRepository interface {
	// List returns automations, optionally filtered by status.
	List(ctx context.Context, status *models.AutomationStatus) ([]*models.Automation, error)
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	Save(ctx context.Context, automation *models.Automation) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores execution records. Records are immutable after
// the final save.
type ExecutionRepository interface {
	Save(ctx context.Context, execution *models.Execution) error
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	// List returns the most recent executions for one automation,
	// newest first.
	List(ctx context.Context, automationID string, limit int) ([]*models.Execution, error)
}

// WatcherStateRepository stores per-domain poll checkpoints.
type WatcherStateRepository interface {
	// Get returns the stored state for a domain, or nil when the domain has
	// never been polled.
	Get(ctx context.Context, domain models.TriggerType) (*models.WatcherState, error)
	Save(ctx context.Context, domain models.TriggerType, state *models.WatcherState) error
}

type Persistence interface {
	AutomationRepository() AutomationRepository
	ExecutionRepository() ExecutionRepository
	WatcherStateRepository() WatcherStateRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
