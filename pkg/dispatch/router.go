// Package dispatch routes abstract actions to remote tool servers, in live
// or dry-run mode.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/protocol"
	"github.com/reflexhq/reflex/pkg/template"
)

// Router executes actions against remote tool servers. Dry-run mode computes
// and describes the call that would be made without invoking anything.
type Router struct {
	tools        protocol.ToolCaller
	completer    protocol.StructuredCompleter
	artifactsDir string
	agentCommand string
	logger       *slog.Logger
}

// Option configures optional Router collaborators.
type Option func(*Router)

// WithCompleter supplies the structured completion provider required by the
// classify-and-label handler.
func WithCompleter(completer protocol.StructuredCompleter) Option {
	return func(r *Router) { r.completer = completer }
}

// WithArtifactsDir sets where the human-handoff handler writes prompt files.
func WithArtifactsDir(dir string) Option {
	return func(r *Router) { r.artifactsDir = dir }
}

// WithAgentCommand sets the command name used in handoff recipes.
func WithAgentCommand(command string) Option {
	return func(r *Router) { r.agentCommand = command }
}

func NewRouter(tools protocol.ToolCaller, logger *slog.Logger, opts ...Option) *Router {
	router := &Router{
		tools:        tools,
		artifactsDir: "artifacts",
		agentCommand: "claude",
		logger:       logger.With("module", "dispatch"),
	}

	for _, opt := range opts {
		opt(router)
	}

	return router
}

// CanDispatch reports whether the router knows how to execute the action's
// type AND the remote server it routes to is currently configured. The
// engine uses this to surface unreachable actions before attempting a run.
func (r *Router) CanDispatch(action *models.Action) bool {
	switch action.Type {
	case ActionTypeClassify:
		return r.completer != nil && r.tools.HasServer(classifyServer)
	case ActionTypeHandoff:
		// Local-only: writes an artifact and proposes a command.
		return true
	}

	route, ok := RouteFor(action.Type)
	if !ok {
		return false
	}

	return r.tools.HasServer(route.Server)
}

// Execute resolves template placeholders in the action's parameters against
// vars, then dispatches. The returned result is always well-formed; failures
// are reported through its status, never as a panic or dropped action.
func (r *Router) Execute(ctx context.Context, action *models.Action, vars map[string]any, dryRun bool) models.ActionResult {
	start := time.Now()
	actionID := action.ID

	if actionID == "" {
		actionID = "act_" + uuid.New().String()[:8]
	}

	params, _ := template.Resolve(action.Params, vars).(map[string]any)
	if params == nil {
		params = map[string]any{}
	}

	switch action.Type {
	case ActionTypeClassify:
		return r.executeClassify(ctx, actionID, params, dryRun, start)
	case ActionTypeHandoff:
		return r.executeHandoff(actionID, params, dryRun, start)
	}

	route, ok := RouteFor(action.Type)
	if !ok {
		return failedResult(actionID, start, fmt.Sprintf("no route for action type: %s", action.Type))
	}

	if !r.tools.HasServer(route.Server) {
		return failedResult(actionID, start, fmt.Sprintf("remote server not configured: %s", route.Server))
	}

	args := buildArgs(action.Type, params)

	if dryRun {
		return dryRunResult(actionID, start, route.Server, route.Tool, args)
	}

	r.logger.Debug("Calling remote tool",
		"server", route.Server,
		"tool", route.Tool,
		"action_type", action.Type)

	result, err := r.tools.Call(ctx, route.Server, route.Tool, args)
	if err != nil {
		return failedResult(actionID, start, err.Error())
	}

	if !result.Success {
		message := result.Error
		if message == "" {
			message = "remote tool call failed"
		}

		return failedResult(actionID, start, message)
	}

	output := map[string]any{
		"server": route.Server,
		"tool":   route.Tool,
	}

	if text := result.Text(); text != "" {
		output["result"] = text
	}

	if result.Structured != nil {
		output["structured"] = result.Structured
	}

	return models.ActionResult{
		ActionID: actionID,
		Status:   models.ActionStatusSuccess,
		Output:   output,
		Duration: time.Since(start),
	}
}

// dryRunResult describes the call that would be made. The resolved arguments
// are merged to the top level of the output for easy inspection.
func dryRunResult(actionID string, start time.Time, server, tool string, args map[string]any) models.ActionResult {
	output := map[string]any{
		"dry_run":       true,
		"would_execute": server + "." + tool,
		"description":   fmt.Sprintf("Would call tool %q on server %q", tool, server),
		"arguments":     args,
	}

	for k, v := range args {
		output[k] = v
	}

	return models.ActionResult{
		ActionID: actionID,
		Status:   models.ActionStatusSuccess,
		Output:   output,
		Duration: time.Since(start),
	}
}

func failedResult(actionID string, start time.Time, message string) models.ActionResult {
	return models.ActionResult{
		ActionID: actionID,
		Status:   models.ActionStatusFailed,
		Error:    message,
		Duration: time.Since(start),
	}
}
