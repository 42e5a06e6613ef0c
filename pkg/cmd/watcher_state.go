package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reflexhq/reflex/pkg/persistence"
	"github.com/reflexhq/reflex/pkg/persistence/redis"
)

// NewWatcherStateStore returns the checkpoint repository the watcher should
// use. With a redis URL the checkpoint lives in Redis so restarts and host
// moves resume from the same position; otherwise the primary store's
// repository is used.
func NewWatcherStateStore(ctx context.Context, logger *slog.Logger, stateURL string, store persistence.Persistence) (persistence.WatcherStateRepository, error) {
	if stateURL == "" {
		return store.WatcherStateRepository(), nil
	}

	repo, err := redis.NewWatcherStateRepository(ctx, logger, stateURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis watcher state store: %w", err)
	}

	return repo, nil
}
