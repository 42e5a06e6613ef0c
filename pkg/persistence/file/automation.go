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

// AutomationRepository handles automation documents on disk.
type AutomationRepository struct {
	root string
}

func NewAutomationRepository(root string) *AutomationRepository {
	return &AutomationRepository{root: root}
}

func (r *AutomationRepository) dir() string {
	return filepath.Join(r.root, "automations")
}

func (r *AutomationRepository) path(id string) string {
	return filepath.Join(r.dir(), id+".json")
}

func (r *AutomationRepository) List(ctx context.Context, status *models.AutomationStatus) ([]*models.Automation, error) {
	root := os.DirFS(r.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list automation files: %w", err)
	}

	automations := make([]*models.Automation, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := file[:len(file)-5]

		automation, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load automation %s: %w", id, err)
		}

		if status != nil && automation.Status != *status {
			continue
		}

		automations = append(automations, automation)
	}

	sort.Slice(automations, func(i, j int) bool {
		return automations[i].CreatedAt.Before(automations[j].CreatedAt)
	})

	return automations, nil
}

func (r *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewAutomationError("GetByID", id, persistence.ErrAutomationNotFound)
		}

		return nil, persistence.NewAutomationError("GetByID", id, err)
	}

	var automation models.Automation
	if err := json.Unmarshal(data, &automation); err != nil {
		return nil, persistence.NewAutomationError("GetByID", id, err)
	}

	// Normalize at the persistence boundary so downstream code only ever
	// sees the canonical trigger shape.
	if automation.Trigger != nil {
		automation.Trigger.Normalize()
	}

	return &automation, nil
}

func (r *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	if automation.Trigger != nil {
		automation.Trigger.Normalize()
	}

	if err := automation.Validate(); err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	if err := os.MkdirAll(r.dir(), 0o750); err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	data, err := json.MarshalIndent(automation, "", "  ")
	if err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	if err := os.WriteFile(r.path(automation.ID), data, 0o600); err != nil {
		return persistence.NewAutomationError("Save", automation.ID, err)
	}

	return nil
}

func (r *AutomationRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewAutomationError("Delete", id, persistence.ErrAutomationNotFound)
		}

		return persistence.NewAutomationError("Delete", id, err)
	}

	return nil
}
