package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reflexhq/reflex/pkg/models"
)

type WatcherStateRepository struct {
	db *sql.DB
}

func NewWatcherStateRepository(db *sql.DB) *WatcherStateRepository {
	return &WatcherStateRepository{db: db}
}

func (r *WatcherStateRepository) Get(ctx context.Context, domain models.TriggerType) (*models.WatcherState, error) {
	var (
		lastCheck sql.NullTime
		processed []byte
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT last_check, processed_ids FROM watcher_states WHERE domain = $1", string(domain),
	).Scan(&lastCheck, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query watcher state for %s: %w", domain, err)
	}

	state := models.NewWatcherState()
	if lastCheck.Valid {
		checkedAt := lastCheck.Time
		state.LastCheck = &checkedAt
	}

	if len(processed) > 0 {
		if err := json.Unmarshal(processed, state.Processed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal processed ids for %s: %w", domain, err)
		}
	}

	return state, nil
}

func (r *WatcherStateRepository) Save(ctx context.Context, domain models.TriggerType, state *models.WatcherState) error {
	processed, err := json.Marshal(state.Processed)
	if err != nil {
		return fmt.Errorf("failed to marshal processed ids for %s: %w", domain, err)
	}

	var lastCheck any
	if state.LastCheck != nil {
		lastCheck = *state.LastCheck
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO watcher_states (domain, last_check, processed_ids, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (domain) DO UPDATE SET
			last_check = EXCLUDED.last_check,
			processed_ids = EXCLUDED.processed_ids,
			updated_at = EXCLUDED.updated_at
	`, string(domain), lastCheck, processed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert watcher state for %s: %w", domain, err)
	}

	return nil
}
