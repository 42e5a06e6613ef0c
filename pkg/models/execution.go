package models

import "time"

// ExecutionStatus represents the outcome of one automation run.
type ExecutionStatus string

const (
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	// ExecutionStatusPartial exists in the model for future continue-on-error
	// policies; the engine never produces it today.
	ExecutionStatusPartial ExecutionStatus = "partial"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// ActionResultStatus is the per-action outcome within an execution.
type ActionResultStatus string

const (
	ActionStatusSuccess ActionResultStatus = "success"
	ActionStatusFailed  ActionResultStatus = "failed"
	ActionStatusSkipped ActionResultStatus = "skipped"
)

// TriggerEvent is the event that caused an execution. Data seeds the
// variable context under the "trigger" key.
type TriggerEvent struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewManualEvent returns the synthetic event recorded for user-initiated runs.
func NewManualEvent() *TriggerEvent {
	return &TriggerEvent{Type: "manual", Timestamp: time.Now().UTC()}
}

// ResolvedVariable is a snapshot of one variable at run time.
type ResolvedVariable struct {
	Name       string  `json:"name"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence,omitempty"`
}

// ActionResult records one attempted action. Results are appended strictly
// in declaration order and appending stops after the first failure.
type ActionResult struct {
	ActionID string             `json:"action_id"`
	Status   ActionResultStatus `json:"status"`
	Output   map[string]any     `json:"output,omitempty"`
	Error    string             `json:"error,omitempty"`
	Duration time.Duration      `json:"duration_ms"`
}

// ExecutionError points at the first failing action of a failed execution.
type ExecutionError struct {
	Message     string `json:"message"`
	ActionID    string `json:"action_id,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

// Execution is the record of one concrete run of an automation against one
// event. AutomationVersion is frozen at run start and never changes after
// creation; the record is immutable once persisted.
type Execution struct {
	ID                string             `json:"id"`
	AutomationID      string             `json:"automation_id"`
	AutomationVersion int                `json:"automation_version"`
	TriggeredAt       time.Time          `json:"triggered_at"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	Status            ExecutionStatus    `json:"status"`
	TriggerEvent      *TriggerEvent      `json:"trigger_event"`
	Variables         []ResolvedVariable `json:"variables,omitempty"`
	ActionResults     []ActionResult     `json:"action_results,omitempty"`
	Error             *ExecutionError    `json:"error,omitempty"`
}
