package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/persistence"
)

type AutomationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAutomationRepository(db *sql.DB, logger *slog.Logger) *AutomationRepository {
	return &AutomationRepository{db: db, logger: logger}
}

func (r *AutomationRepository) List(ctx context.Context, status *models.AutomationStatus) ([]*models.Automation, error) {
	query := "SELECT document FROM automations"
	args := []any{}

	if status != nil {
		query += " WHERE status = $1"
		args = append(args, string(*status))
	}

	query += " ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewAutomationError("list", "", fmt.Errorf("failed to query automations: %w", err))
	}
	defer rows.Close()

	var automations []*models.Automation

	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, persistence.NewAutomationError("list", "", fmt.Errorf("failed to scan automation row: %w", err))
		}

		automation, err := decodeAutomation(document)
		if err != nil {
			return nil, persistence.NewAutomationError("list", "", err)
		}

		automations = append(automations, automation)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewAutomationError("list", "", fmt.Errorf("failed to iterate automation rows: %w", err))
	}

	return automations, nil
}

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx, "SELECT document FROM automations WHERE id = $1", id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewAutomationError("get", id, persistence.ErrAutomationNotFound)
	}

	if err != nil {
		return nil, persistence.NewAutomationError("get", id, fmt.Errorf("failed to query automation: %w", err))
	}

	automation, err := decodeAutomation(document)
	if err != nil {
		return nil, persistence.NewAutomationError("get", id, err)
	}

	return automation, nil
}

func (r *AutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	if automation.Trigger != nil {
		automation.Trigger.Normalize()
	}

	if err := automation.Validate(); err != nil {
		return persistence.NewAutomationError("save", automation.ID, fmt.Errorf("invalid automation: %w", err))
	}

	document, err := json.Marshal(automation)
	if err != nil {
		return persistence.NewAutomationError("save", automation.ID, fmt.Errorf("failed to marshal automation: %w", err))
	}

	triggerType := ""
	if automation.Trigger != nil {
		triggerType = string(automation.Trigger.Type)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO automations (id, status, trigger_type, version, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			trigger_type = EXCLUDED.trigger_type,
			version = EXCLUDED.version,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, automation.ID, string(automation.Status), triggerType, automation.Version, document, automation.CreatedAt, automation.UpdatedAt)
	if err != nil {
		return persistence.NewAutomationError("save", automation.ID, fmt.Errorf("failed to upsert automation: %w", err))
	}

	return nil
}

func (r *AutomationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM automations WHERE id = $1", id)
	if err != nil {
		return persistence.NewAutomationError("delete", id, fmt.Errorf("failed to delete automation: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewAutomationError("delete", id, fmt.Errorf("failed to read affected rows: %w", err))
	}

	if affected == 0 {
		return persistence.NewAutomationError("delete", id, persistence.ErrAutomationNotFound)
	}

	return nil
}

func decodeAutomation(document []byte) (*models.Automation, error) {
	var automation models.Automation
	if err := json.Unmarshal(document, &automation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal automation: %w", err)
	}

	if automation.Trigger != nil {
		automation.Trigger.Normalize()
	}

	return &automation, nil
}
