package models

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// TriggerType is the closed tag of the trigger variant.
type TriggerType string

const (
	TriggerTypeEmail      TriggerType = "email"
	TriggerTypeCodeReview TriggerType = "code_review"
	TriggerTypeSchedule   TriggerType = "schedule"
	TriggerTypeWebhook    TriggerType = "webhook"
	TriggerTypeFileChange TriggerType = "file_change"
	TriggerTypeManual     TriggerType = "manual"
)

// Operator is a condition comparison operator.
type Operator string

const (
	OperatorEquals   Operator = "equals"
	OperatorContains Operator = "contains"
	OperatorMatches  Operator = "matches"
	OperatorSemantic Operator = "semantic"
)

// Condition is one field/operator/value predicate within a trigger.
// Confidence is carried for future weighting and ignored by the evaluator.
type Condition struct {
	Field      string   `json:"field"      validate:"required"`
	Operator   Operator `json:"operator"   validate:"required,oneof=equals contains matches semantic"`
	Value      string   `json:"value"`
	Confidence float64  `json:"confidence,omitempty"`
}

// Trigger is the canonical tagged variant for all trigger kinds. Raw trigger
// maps from the planning stage are normalized into this shape at the
// persistence boundary; downstream code branches only on Type.
//
// Only email and code_review triggers have a core-provided evaluator. The
// remaining variants are data-model entries consumed elsewhere.
type Trigger struct {
	Type TriggerType `json:"type" validate:"required,oneof=email code_review schedule webhook file_change manual"`

	// email, code_review
	Account    string      `json:"account,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`

	// code_review: allow-list of review states gating all conditions.
	ReviewStates []string `json:"review_states,omitempty"`

	// schedule
	Cron         string `json:"cron,omitempty"`
	IntervalVal  int    `json:"interval_value,omitempty"`
	IntervalUnit string `json:"interval_unit,omitempty"`
	Timezone     string `json:"timezone,omitempty"`

	// webhook
	Endpoint string `json:"endpoint,omitempty"`
	Secret   string `json:"secret,omitempty"`

	// file_change
	Connector   string   `json:"connector,omitempty"`
	PathPattern string   `json:"path_pattern,omitempty"`
	Events      []string `json:"events,omitempty"`
}

// Normalize fills variant defaults. Repositories call it on every load and
// save so the rest of the system never sees a partially-specified trigger.
func (t *Trigger) Normalize() {
	for i := range t.Conditions {
		if t.Conditions[i].Operator == "" {
			t.Conditions[i].Operator = OperatorContains
		}

		if t.Conditions[i].Confidence == 0 {
			t.Conditions[i].Confidence = 1.0
		}
	}

	if t.Type == TriggerTypeSchedule && t.Timezone == "" {
		t.Timezone = "UTC"
	}

	if t.Type == TriggerTypeFileChange && len(t.Events) == 0 {
		t.Events = []string{"created", "modified"}
	}
}

// Validate checks variant-specific constraints beyond the struct tags.
func (t *Trigger) Validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}

	if t.Type == TriggerTypeSchedule && t.Cron != "" {
		if _, err := cronParser.Parse(t.Cron); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", t.Cron, err)
		}
	}

	return nil
}

// NextRun returns the next fire time of a schedule trigger after the given
// reference time.
func (t *Trigger) NextRun(after time.Time) (time.Time, error) {
	if t.Type != TriggerTypeSchedule {
		return time.Time{}, fmt.Errorf("trigger type %q has no schedule", t.Type)
	}

	if t.Cron != "" {
		schedule, err := cronParser.Parse(t.Cron)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", t.Cron, err)
		}

		return schedule.Next(after), nil
	}

	if t.IntervalVal <= 0 {
		return time.Time{}, fmt.Errorf("schedule trigger has neither cron nor interval")
	}

	var unit time.Duration

	switch t.IntervalUnit {
	case "minutes", "":
		unit = time.Minute
	case "hours":
		unit = time.Hour
	case "days":
		unit = 24 * time.Hour
	default:
		return time.Time{}, fmt.Errorf("unknown interval unit %q", t.IntervalUnit)
	}

	return after.Add(time.Duration(t.IntervalVal) * unit), nil
}

// cronParser accepts the standard 5-field format (minute hour dom month dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
