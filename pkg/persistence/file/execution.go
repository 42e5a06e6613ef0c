package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/persistence"
)

// ExecutionRepository handles execution documents on disk.
type ExecutionRepository struct {
	root string
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (r *ExecutionRepository) dir() string {
	return filepath.Join(r.root, "executions")
}

func (r *ExecutionRepository) path(id string) string {
	return filepath.Join(r.dir(), id+".json")
}

func (r *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	if err := os.MkdirAll(r.dir(), 0o750); err != nil {
		return fmt.Errorf("failed to create executions dir: %w", err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	if err := os.WriteFile(r.path(execution.ID), data, 0o600); err != nil {
		return fmt.Errorf("failed to write execution %s: %w", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) List(ctx context.Context, automationID string, limit int) ([]*models.Execution, error) {
	root := os.DirFS(r.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	executions := make([]*models.Execution, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		execution, err := r.GetByID(ctx, file[:len(file)-5])
		if err != nil {
			return nil, err
		}

		if automationID != "" && execution.AutomationID != automationID {
			continue
		}

		executions = append(executions, execution)
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].TriggeredAt.After(executions[j].TriggeredAt)
	})

	if limit > 0 && len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}
