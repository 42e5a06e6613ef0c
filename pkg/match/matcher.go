// Package match evaluates trigger conditions against domain events.
package match

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/reflexhq/reflex/pkg/models"
)

// Matcher checks whether an event satisfies a trigger's condition list.
//
// Operators:
//   - equals: case-insensitive substring containment (kept identical to
//     contains, matching observed behavior)
//   - contains: case-insensitive substring containment
//   - matches: case-insensitive regex search; malformed patterns evaluate
//     to false and never propagate
//   - semantic: degrades to contains; extension point for similarity-based
//     matching
type Matcher struct {
	logger *slog.Logger
}

func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logger.With("module", "matcher")}
}

// Matches reports whether the event satisfies every condition of the trigger
// (logical AND, short-circuit on first failure). An empty condition list is
// an explicit match-all: automations without conditions fire on every event
// of the right domain.
//
// The event's domain must equal the trigger's type; callers pre-filter by
// domain but the check is cheap and keeps the contract local. Code-review
// triggers additionally gate on the review-state allow-list before any
// condition is evaluated.
func (m *Matcher) Matches(event models.EventRecord, trigger *models.Trigger) bool {
	if event.Domain() != trigger.Type {
		return false
	}

	if trigger.Type == models.TriggerTypeCodeReview && !m.stateAllowed(event, trigger) {
		return false
	}

	for _, condition := range trigger.Conditions {
		if !m.checkCondition(event, condition) {
			return false
		}
	}

	return true
}

// stateAllowed applies the code-review top-level gate: the review's state
// must be a case-insensitive member of the trigger's allowed states. An
// empty allow-list admits every state.
func (m *Matcher) stateAllowed(event models.EventRecord, trigger *models.Trigger) bool {
	if len(trigger.ReviewStates) == 0 {
		return true
	}

	state, ok := event.Field("state")
	if !ok {
		return false
	}

	for _, allowed := range trigger.ReviewStates {
		if strings.EqualFold(state, allowed) {
			return true
		}
	}

	m.logger.Debug("Review state not in allow-list",
		"state", state,
		"allowed", trigger.ReviewStates)

	return false
}

func (m *Matcher) checkCondition(event models.EventRecord, condition models.Condition) bool {
	value, ok := event.Field(condition.Field)
	if !ok {
		return false
	}

	return applyOperator(value, condition.Operator, condition.Value)
}

func applyOperator(value string, operator models.Operator, pattern string) bool {
	valueLower := strings.ToLower(value)
	patternLower := strings.ToLower(pattern)

	switch operator {
	case models.OperatorEquals:
		// Intentionally containment, not equality; see matcher docs.
		return strings.Contains(valueLower, patternLower)
	case models.OperatorContains:
		return strings.Contains(valueLower, patternLower)
	case models.OperatorMatches:
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return false
		}

		return re.MatchString(value)
	case models.OperatorSemantic:
		return strings.Contains(valueLower, patternLower)
	}

	return false
}
