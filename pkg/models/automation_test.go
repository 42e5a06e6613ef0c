package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validAutomation() *Automation {
	now := time.Now().UTC()

	return &Automation{
		ID:      "auto_1",
		Name:    "Label invoices",
		Status:  AutomationStatusDraft,
		Trigger: &Trigger{Type: TriggerTypeEmail},
		Actions: []Action{
			{ID: "a1", Type: "email.label", Params: map[string]any{"label": "Invoices"}},
		},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

func TestAutomationValidate(t *testing.T) {
	assert.NoError(t, validAutomation().Validate())

	missingName := validAutomation()
	missingName.Name = ""
	assert.Error(t, missingName.Validate())

	badStatus := validAutomation()
	badStatus.Status = "sleeping"
	assert.Error(t, badStatus.Validate())

	noTrigger := validAutomation()
	noTrigger.Trigger = nil
	assert.Error(t, noTrigger.Validate())

	badVersion := validAutomation()
	badVersion.Version = 0
	assert.Error(t, badVersion.Validate())
}

func TestAutomationStatusTransitions(t *testing.T) {
	automation := validAutomation()

	automation.Activate()
	assert.Equal(t, AutomationStatusActive, automation.Status)

	automation.Pause()
	assert.Equal(t, AutomationStatusPaused, automation.Status)
}
