// Package file provides file-based persistence backed by JSON documents.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/reflexhq/reflex/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local file system.
// Layout: <root>/automations/<id>.json, <root>/executions/<id>.json,
// <root>/watcher_state/<domain>.json.
type Persistence struct {
	root           string
	automationRepo *AutomationRepository
	executionRepo  *ExecutionRepository
	stateRepo      *WatcherStateRepository
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:           cleanRoot,
		automationRepo: NewAutomationRepository(cleanRoot),
		executionRepo:  NewExecutionRepository(cleanRoot),
		stateRepo:      NewWatcherStateRepository(cleanRoot),
	}
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

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
