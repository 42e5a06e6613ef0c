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

type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	document, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO executions (id, automation_id, status, triggered_at, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			document = EXCLUDED.document
	`, execution.ID, execution.AutomationID, string(execution.Status), execution.TriggeredAt, document)
	if err != nil {
		return fmt.Errorf("failed to upsert execution %s: %w", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	var document []byte

	err := r.db.QueryRowContext(ctx, "SELECT document FROM executions WHERE id = $1", id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query execution %s: %w", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(document, &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", id, err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) List(ctx context.Context, automationID string, limit int) ([]*models.Execution, error) {
	query := "SELECT document FROM executions"
	args := []any{}

	if automationID != "" {
		query += " WHERE automation_id = $1"
		args = append(args, automationID)
	}

	query += " ORDER BY triggered_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var executions []*models.Execution

	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}

		var execution models.Execution
		if err := json.Unmarshal(document, &execution); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
		}

		executions = append(executions, &execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate execution rows: %w", err)
	}

	return executions, nil
}
