// Package persistence provides standardized error types for storage
// operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrAutomationNotFound indicates no automation exists for the given id.
	ErrAutomationNotFound = errors.New("automation not found")

	// ErrExecutionNotFound indicates no execution exists for the given id.
	ErrExecutionNotFound = errors.New("execution not found")
)

// AutomationError wraps automation storage errors with operation context.
type AutomationError struct {
	Op           string
	AutomationID string
	Err          error
}

func (e *AutomationError) Error() string {
	return fmt.Sprintf("%s operation failed for automation %s: %v", e.Op, e.AutomationID, e.Err)
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

func (e *AutomationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewAutomationError creates an automation error with context.
func NewAutomationError(op, automationID string, err error) *AutomationError {
	return &AutomationError{Op: op, AutomationID: automationID, Err: err}
}

// IsAutomationNotFound checks if an error indicates a missing automation.
func IsAutomationNotFound(err error) bool {
	return errors.Is(err, ErrAutomationNotFound)
}
