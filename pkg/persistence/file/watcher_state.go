package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reflexhq/reflex/pkg/models"
)

// WatcherStateRepository stores one checkpoint document per source domain.
type WatcherStateRepository struct {
	root string
}

func NewWatcherStateRepository(root string) *WatcherStateRepository {
	return &WatcherStateRepository{root: root}
}

func (r *WatcherStateRepository) path(domain models.TriggerType) string {
	return filepath.Join(r.root, "watcher_state", string(domain)+".json")
}

func (r *WatcherStateRepository) Get(_ context.Context, domain models.TriggerType) (*models.WatcherState, error) {
	data, err := os.ReadFile(r.path(domain))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read watcher state for %s: %w", domain, err)
	}

	state := models.NewWatcherState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal watcher state for %s: %w", domain, err)
	}

	if state.Processed == nil {
		state.Processed = models.NewProcessedSet()
	}

	return state, nil
}

func (r *WatcherStateRepository) Save(_ context.Context, domain models.TriggerType, state *models.WatcherState) error {
	dir := filepath.Join(r.root, "watcher_state")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create watcher state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal watcher state for %s: %w", domain, err)
	}

	if err := os.WriteFile(r.path(domain), data, 0o600); err != nil {
		return fmt.Errorf("failed to write watcher state for %s: %w", domain, err)
	}

	return nil
}
