// Package events defines lifecycle notifications emitted around automation
// runs.
package events

import (
	"time"
)

type EventType string

// Topic is the single stream all lifecycle events are published on.
const Topic = "reflex.events"

const EventTypeMetadataKey = "event_type"

const (
	AutomationTriggeredEvent EventType = "automation.triggered"
	ExecutionCompletedEvent  EventType = "execution.completed"
	ExecutionFailedEvent     EventType = "execution.failed"
)

type BaseEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	AutomationID string    `json:"automation_id"`
}

// AutomationTriggered is published when a matched event starts a run.
type AutomationTriggered struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	TriggerType string         `json:"trigger_type"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (e AutomationTriggered) GetType() EventType {
	return AutomationTriggeredEvent
}

// ExecutionCompleted is published after a successful run.
type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	ActionCount int           `json:"action_count"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

// ExecutionFailed is published after a failed run.
type ExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	ActionID    string        `json:"action_id,omitempty"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
