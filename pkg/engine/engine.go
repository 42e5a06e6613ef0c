// Package engine runs an automation's action sequence against one trigger
// event and records the outcome as an execution.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/reflexhq/reflex/pkg/dispatch"
	"github.com/reflexhq/reflex/pkg/eventbus"
	"github.com/reflexhq/reflex/pkg/events"
	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/otelhelper"
	"github.com/reflexhq/reflex/pkg/persistence"
)

// Engine executes automations. It is safe for concurrent use as long as the
// injected router, persistence and event bus are.
type Engine struct {
	router      *dispatch.Router
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	logger      *slog.Logger
}

type Option func(*Engine)

// WithEventBus enables lifecycle event publishing. Without it runs are
// silent.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(e *Engine) { e.eventBus = bus }
}

// WithTracer enables span emission around runs and individual actions.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

func NewEngine(router *dispatch.Router, store persistence.Persistence, logger *slog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		router:      router,
		persistence: store,
		logger:      logger.With("module", "engine"),
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// Run executes automation against event and returns the completed execution
// record. Actions run strictly in declaration order and the run stops at the
// first failure. When dryRun is set no remote tools are called, nothing is
// persisted and no events are published; the returned execution describes
// what would have happened.
//
// The returned error is non-nil only for infrastructure failures (persisting
// the record). A run whose actions failed returns a nil error and an
// execution with status failed.
func (e *Engine) Run(ctx context.Context, automation *models.Automation, event *models.TriggerEvent, dryRun bool) (*models.Execution, error) {
	if event == nil {
		event = models.NewManualEvent()
	}

	execution := &models.Execution{
		ID:                "exec_" + uuid.New().String(),
		AutomationID:      automation.ID,
		AutomationVersion: automation.Version,
		TriggeredAt:       time.Now().UTC(),
		Status:            models.ExecutionStatusRunning,
		TriggerEvent:      event,
	}

	ctx, span := e.startRunSpan(ctx, automation, execution, dryRun)
	defer span.End()

	logger := e.logger.With(
		"automation_id", automation.ID,
		"execution_id", execution.ID,
		"dry_run", dryRun,
	)
	logger.InfoContext(ctx, "Starting execution",
		"trigger_type", event.Type, "actions", len(automation.Actions))

	e.publishTriggered(ctx, automation, execution, event, dryRun)

	vars := e.resolveVariables(automation, event)
	execution.Variables = snapshotVariables(automation, vars)

	failed := e.runActions(ctx, automation, execution, vars, dryRun, logger)

	completedAt := time.Now().UTC()
	execution.CompletedAt = &completedAt

	if failed != nil {
		execution.Status = models.ExecutionStatusFailed
		execution.Error = &models.ExecutionError{
			Message:     failed.Error,
			ActionID:    failed.ActionID,
			Recoverable: true,
		}
	} else {
		execution.Status = models.ExecutionStatusSuccess
	}

	if !dryRun {
		if err := e.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
			otelhelper.SetError(span, err)

			return execution, fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
		}

		e.publishCompletion(ctx, automation, execution)
	}

	logger.InfoContext(ctx, "Execution finished",
		"status", execution.Status, "results", len(execution.ActionResults))

	return execution, nil
}

// runActions walks the action list and returns the first failed result, or
// nil when every action succeeded.
func (e *Engine) runActions(ctx context.Context, automation *models.Automation, execution *models.Execution, vars map[string]any, dryRun bool, logger *slog.Logger) *models.ActionResult {
	for i := range automation.Actions {
		action := &automation.Actions[i]

		if err := ctx.Err(); err != nil {
			result := models.ActionResult{
				ActionID: action.ID,
				Status:   models.ActionStatusFailed,
				Error:    fmt.Sprintf("execution cancelled: %v", err),
			}
			execution.ActionResults = append(execution.ActionResults, result)

			return &result
		}

		if !e.router.CanDispatch(action) {
			result := models.ActionResult{
				ActionID: action.ID,
				Status:   models.ActionStatusFailed,
				Error:    fmt.Sprintf("no route or server for action type: %s", action.Type),
			}
			execution.ActionResults = append(execution.ActionResults, result)

			logger.WarnContext(ctx, "Action not dispatchable, stopping execution",
				"action_id", action.ID, "action_type", action.Type)

			return &result
		}

		actionCtx, actionSpan := e.startActionSpan(ctx, action)
		result := e.router.Execute(actionCtx, action, vars, dryRun)
		execution.ActionResults = append(execution.ActionResults, result)

		if result.Status == models.ActionStatusFailed {
			logger.WarnContext(ctx, "Action failed, stopping execution",
				"action_id", result.ActionID, "action_type", action.Type, "error", result.Error)
			otelhelper.SetError(actionSpan, fmt.Errorf("%s", result.Error))
			actionSpan.End()

			return &result
		}

		actionSpan.End()
	}

	return nil
}

// resolveVariables builds the template context for a run: the raw event data
// under "trigger" plus every declared variable, initially nil.
func (e *Engine) resolveVariables(automation *models.Automation, event *models.TriggerEvent) map[string]any {
	vars := map[string]any{
		"trigger": event.Data,
	}

	for _, variable := range automation.Variables {
		if _, exists := vars[variable.Name]; !exists {
			vars[variable.Name] = nil
		}
	}

	return vars
}

func snapshotVariables(automation *models.Automation, vars map[string]any) []models.ResolvedVariable {
	resolved := make([]models.ResolvedVariable, 0, len(automation.Variables))

	for _, variable := range automation.Variables {
		resolved = append(resolved, models.ResolvedVariable{
			Name:  variable.Name,
			Value: vars[variable.Name],
		})
	}

	return resolved
}

func (e *Engine) startRunSpan(ctx context.Context, automation *models.Automation, execution *models.Execution, dryRun bool) (context.Context, trace.Span) {
	if e.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, "")
	}

	return otelhelper.StartSpan(ctx, e.tracer, "engine.run",
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.AutomationNameKey, automation.Name),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.Bool(otelhelper.DryRunKey, dryRun),
	)
}

func (e *Engine) startActionSpan(ctx context.Context, action *models.Action) (context.Context, trace.Span) {
	if e.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, "")
	}

	return otelhelper.StartSpan(ctx, e.tracer, "engine.action",
		attribute.String(otelhelper.ActionIDKey, action.ID),
		attribute.String(otelhelper.ActionTypeKey, action.Type),
	)
}

func (e *Engine) publishTriggered(ctx context.Context, automation *models.Automation, execution *models.Execution, event *models.TriggerEvent, dryRun bool) {
	if e.eventBus == nil || dryRun {
		return
	}

	err := e.eventBus.Publish(ctx, automation.ID, events.AutomationTriggered{
		BaseEvent:   e.baseEvent(events.AutomationTriggeredEvent, automation.ID),
		ExecutionID: execution.ID,
		TriggerType: event.Type,
		TriggerData: event.Data,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish triggered event", "error", err)
	}
}

func (e *Engine) publishCompletion(ctx context.Context, automation *models.Automation, execution *models.Execution) {
	if e.eventBus == nil {
		return
	}

	duration := execution.CompletedAt.Sub(execution.TriggeredAt)

	var err error

	if execution.Status == models.ExecutionStatusSuccess {
		err = e.eventBus.Publish(ctx, automation.ID, events.ExecutionCompleted{
			BaseEvent:   e.baseEvent(events.ExecutionCompletedEvent, automation.ID),
			ExecutionID: execution.ID,
			ActionCount: len(execution.ActionResults),
			Duration:    duration,
		})
	} else {
		failure := events.ExecutionFailed{
			BaseEvent:   e.baseEvent(events.ExecutionFailedEvent, automation.ID),
			ExecutionID: execution.ID,
			Duration:    duration,
		}
		if execution.Error != nil {
			failure.Error = execution.Error.Message
			failure.ActionID = execution.Error.ActionID
		}

		err = e.eventBus.Publish(ctx, automation.ID, failure)
	}

	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish completion event", "error", err)
	}
}

func (e *Engine) baseEvent(eventType events.EventType, automationID string) events.BaseEvent {
	return events.BaseEvent{
		ID:           e.eventBus.GenerateID(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		AutomationID: automationID,
	}
}
