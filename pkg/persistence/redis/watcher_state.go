// Package redis stores watcher checkpoints in Redis so that a restarted
// watcher, or one moved to another host, resumes from the same position.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/reflexhq/reflex/pkg/models"
)

const keyPrefix = "reflex:watcher_state:"

type WatcherStateRepository struct {
	client *redis.Client
	logger *slog.Logger
}

func NewWatcherStateRepository(ctx context.Context, logger *slog.Logger, redisURL string) (*WatcherStateRepository, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &WatcherStateRepository{client: client, logger: logger}, nil
}

func (r *WatcherStateRepository) Get(ctx context.Context, domain models.TriggerType) (*models.WatcherState, error) {
	payload, err := r.client.Get(ctx, keyPrefix+string(domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read watcher state for %s: %w", domain, err)
	}

	state := models.NewWatcherState()
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal watcher state for %s: %w", domain, err)
	}

	if state.Processed == nil {
		state.Processed = models.NewProcessedSet()
	}

	return state, nil
}

func (r *WatcherStateRepository) Save(ctx context.Context, domain models.TriggerType, state *models.WatcherState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal watcher state for %s: %w", domain, err)
	}

	if err := r.client.Set(ctx, keyPrefix+string(domain), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write watcher state for %s: %w", domain, err)
	}

	return nil
}

func (r *WatcherStateRepository) Close() error {
	return r.client.Close()
}
