package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/persistence"
)

func newStore(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func storedAutomation(id string, status models.AutomationStatus) *models.Automation {
	now := time.Now().UTC()

	return &models.Automation{
		ID:      id,
		Name:    "Label invoices",
		Status:  status,
		Trigger: &models.Trigger{Type: models.TriggerTypeEmail},
		Actions: []models.Action{
			{ID: "a1", Type: "email.label", Params: map[string]any{"label": "Invoices"}},
		},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

func TestAutomationRepository_SaveAndGet(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.AutomationRepository().Save(ctx, storedAutomation("auto_1", models.AutomationStatusActive)))

	loaded, err := store.AutomationRepository().GetByID(ctx, "auto_1")
	require.NoError(t, err)
	assert.Equal(t, "Label invoices", loaded.Name)
	assert.Equal(t, models.AutomationStatusActive, loaded.Status)
}

func TestAutomationRepository_GetMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.AutomationRepository().GetByID(context.Background(), "nope")
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func TestAutomationRepository_SaveRejectsInvalid(t *testing.T) {
	store := newStore(t)

	invalid := storedAutomation("auto_1", models.AutomationStatusActive)
	invalid.Name = ""

	assert.Error(t, store.AutomationRepository().Save(context.Background(), invalid))
}

func TestAutomationRepository_SaveNormalizesTrigger(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	automation := storedAutomation("auto_1", models.AutomationStatusDraft)
	automation.Trigger.Conditions = []models.Condition{{Field: "subject", Value: "invoice"}}

	require.NoError(t, store.AutomationRepository().Save(ctx, automation))

	loaded, err := store.AutomationRepository().GetByID(ctx, "auto_1")
	require.NoError(t, err)
	assert.Equal(t, models.OperatorContains, loaded.Trigger.Conditions[0].Operator)
	assert.Equal(t, 1.0, loaded.Trigger.Conditions[0].Confidence)
}

func TestAutomationRepository_ListFiltersByStatus(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.AutomationRepository().Save(ctx, storedAutomation("auto_1", models.AutomationStatusActive)))
	require.NoError(t, store.AutomationRepository().Save(ctx, storedAutomation("auto_2", models.AutomationStatusPaused)))

	all, err := store.AutomationRepository().List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active := models.AutomationStatusActive
	filtered, err := store.AutomationRepository().List(ctx, &active)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "auto_1", filtered[0].ID)
}

func TestAutomationRepository_Delete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.AutomationRepository().Save(ctx, storedAutomation("auto_1", models.AutomationStatusDraft)))
	require.NoError(t, store.AutomationRepository().Delete(ctx, "auto_1"))

	_, err := store.AutomationRepository().GetByID(ctx, "auto_1")
	assert.True(t, persistence.IsAutomationNotFound(err))

	err = store.AutomationRepository().Delete(ctx, "auto_1")
	assert.True(t, persistence.IsAutomationNotFound(err))
}

func TestExecutionRepository_SaveAndList(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, id := range []string{"exec_1", "exec_2", "exec_3"} {
		execution := &models.Execution{
			ID:                id,
			AutomationID:      "auto_1",
			AutomationVersion: 1,
			TriggeredAt:       time.Now().UTC().Add(time.Duration(i) * time.Minute),
			Status:            models.ExecutionStatusSuccess,
			TriggerEvent:      models.NewManualEvent(),
		}
		require.NoError(t, store.ExecutionRepository().Save(ctx, execution))
	}

	executions, err := store.ExecutionRepository().List(ctx, "auto_1", 2)
	require.NoError(t, err)
	require.Len(t, executions, 2)

	// Newest first.
	assert.Equal(t, "exec_3", executions[0].ID)
	assert.Equal(t, "exec_2", executions[1].ID)
}

func TestExecutionRepository_GetMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.ExecutionRepository().GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestWatcherStateRepository_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// Never polled: nil state, nil error.
	state, err := store.WatcherStateRepository().Get(ctx, models.TriggerTypeEmail)
	require.NoError(t, err)
	assert.Nil(t, state)

	saved := models.NewWatcherState()
	saved.Processed.Add("E1")
	now := time.Now().UTC().Truncate(time.Second)
	saved.LastCheck = &now

	require.NoError(t, store.WatcherStateRepository().Save(ctx, models.TriggerTypeEmail, saved))

	loaded, err := store.WatcherStateRepository().Get(ctx, models.TriggerTypeEmail)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.Processed.Contains("E1"))
	assert.True(t, loaded.LastCheck.Equal(now))

	// Domains do not share state.
	other, err := store.WatcherStateRepository().Get(ctx, models.TriggerTypeCodeReview)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestWatcherStateRepository_RoundTripEmptyState(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	// A poll that fetched nothing still saves its checkpoint.
	require.NoError(t, store.WatcherStateRepository().Save(ctx, models.TriggerTypeEmail, models.NewWatcherState()))

	loaded, err := store.WatcherStateRepository().Get(ctx, models.TriggerTypeEmail)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.NotNil(t, loaded.Processed)
	assert.False(t, loaded.Processed.Contains("E1"))

	loaded.Processed.Add("E1")
	assert.True(t, loaded.Processed.Contains("E1"))
}

func TestPersistence_HealthCheck(t *testing.T) {
	store := newStore(t)

	assert.NoError(t, store.HealthCheck(context.Background()))
}
