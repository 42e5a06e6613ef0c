// Package models defines the core domain models for trigger-driven automations.
package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// AutomationStatus represents the lifecycle state of an automation.
type AutomationStatus string

const (
	AutomationStatusDraft  AutomationStatus = "draft"  // Created but never activated
	AutomationStatusActive AutomationStatus = "active" // Eligible for watcher polling
	AutomationStatusPaused AutomationStatus = "paused" // Kept but not polled
	AutomationStatusError  AutomationStatus = "error"  // Disabled after repeated failures
)

// Variable is a declared automation variable. The value is populated only at
// run time; the definition carries the name and where it resolves from.
type Variable struct {
	Name         string `json:"name"          validate:"required"`
	Type         string `json:"type,omitempty"`
	ResolvedFrom string `json:"resolved_from,omitempty"`
}

// Automation is a stored definition of one trigger plus an ordered action
// sequence. Version increases monotonically on re-planning; an execution
// always records the version as it existed when the run started.
type Automation struct {
	ID          string           `json:"id"          validate:"required"`
	Name        string           `json:"name"        validate:"required,min=3"`
	Description string           `json:"description,omitempty"`
	Status      AutomationStatus `json:"status"      validate:"required,oneof=draft active paused error"`
	Trigger     *Trigger         `json:"trigger"     validate:"required"`
	Variables   []Variable       `json:"variables,omitempty"`
	Actions     []Action         `json:"actions"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Version     int              `json:"version"     validate:"gte=1"`
}

var validate = validator.New()

// Validate checks the automation against its declared constraints.
func (a *Automation) Validate() error {
	if err := validate.Struct(a); err != nil {
		return err
	}

	return a.Trigger.Validate()
}

// Activate marks the automation eligible for watcher polling.
func (a *Automation) Activate() {
	a.Status = AutomationStatusActive
	a.UpdatedAt = time.Now().UTC()
}

// Pause keeps the automation but removes it from polling.
func (a *Automation) Pause() {
	a.Status = AutomationStatusPaused
	a.UpdatedAt = time.Now().UTC()
}
